package intent

// Thresholds are empirical; keep them configurable.
type Thresholds struct {
	// Reject drops any best candidate whose textual score is below it.
	Reject float64
	// VisibleAccept is the minimum boosted score for a visible-only match.
	VisibleAccept float64
	// VisibleBonus is added to on-screen items when PreferVisible is set.
	VisibleBonus float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Reject: 0.45, VisibleAccept: 0.55, VisibleBonus: 0.08}
}

// Item is one orderable entry of the rendered catalog.
type Item struct {
	ID          uint
	Name        string
	Description string
	Price       float64
	Visible     bool
}

type Match struct {
	ID    uint    `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	// Score is the textual similarity, without the visibility bonus.
	Score float64 `json:"score"`
}

type Options struct {
	PreferVisible bool
}

type Matcher struct {
	T Thresholds
}

func NewMatcher(t Thresholds) *Matcher {
	return &Matcher{T: t}
}

type scored struct {
	item    Item
	score   float64
	boosted float64
}

// BestMatch returns the catalog item that best matches query, or nil when
// nothing clears the reject threshold. Equal scores keep catalog order.
func (m *Matcher) BestMatch(query string, catalog []Item, opts Options) *Match {
	if Normalize(query) == "" || len(catalog) == 0 {
		return nil
	}

	all := make([]scored, 0, len(catalog))
	for _, it := range catalog {
		s := Similarity(query, it.Name, it.Description)
		b := s
		if opts.PreferVisible && it.Visible {
			b = min(1, s+m.T.VisibleBonus)
		}
		all = append(all, scored{item: it, score: s, boosted: b})
	}

	if opts.PreferVisible {
		if best := pick(all, true); best != nil && best.boosted >= m.T.VisibleAccept && best.score >= m.T.Reject {
			return toMatch(best)
		}
	}

	best := pick(all, false)
	if best == nil || best.score < m.T.Reject {
		return nil
	}
	return toMatch(best)
}

func pick(all []scored, visibleOnly bool) *scored {
	var best *scored
	for i := range all {
		c := &all[i]
		if visibleOnly && !c.item.Visible {
			continue
		}
		if best == nil || c.boosted > best.boosted {
			best = c
		}
	}
	return best
}

func toMatch(s *scored) *Match {
	return &Match{ID: s.item.ID, Name: s.item.Name, Price: s.item.Price, Score: s.score}
}
