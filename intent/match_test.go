package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalog() []Item {
	return []Item{
		{ID: 1, Name: "Margherita Pizza", Price: 9.5},
		{ID: 2, Name: "Caesar Salad", Price: 7},
	}
}

func TestBestMatchResolvesMisspelling(t *testing.T) {
	m := NewMatcher(DefaultThresholds())

	got := m.BestMatch("margarita pizza", catalog(), Options{})
	require.NotNil(t, got)
	assert.Equal(t, uint(1), got.ID)
	assert.Equal(t, 9.5, got.Price)
	assert.GreaterOrEqual(t, got.Score, 0.45)
}

func TestBestMatchRejectsNoise(t *testing.T) {
	m := NewMatcher(DefaultThresholds())
	assert.Nil(t, m.BestMatch("asdlkjasd", catalog(), Options{}))
	assert.Nil(t, m.BestMatch("", catalog(), Options{}))
	assert.Nil(t, m.BestMatch("pizza", nil, Options{}))
}

func TestBestMatchPrefersVisibleOnTie(t *testing.T) {
	m := NewMatcher(DefaultThresholds())
	items := []Item{
		{ID: 10, Name: "Pizza Bianca"},
		{ID: 11, Name: "Pizza Rossa", Visible: true},
	}

	got := m.BestMatch("pizza", items, Options{PreferVisible: true})
	require.NotNil(t, got)
	assert.Equal(t, uint(11), got.ID)
	assert.Equal(t, 0.92, got.Score)

	// Without the preference catalog order breaks the tie.
	got = m.BestMatch("pizza", items, Options{})
	require.NotNil(t, got)
	assert.Equal(t, uint(10), got.ID)
}

func TestBestMatchFallsBackToFullCatalog(t *testing.T) {
	m := NewMatcher(DefaultThresholds())
	items := []Item{
		{ID: 1, Name: "Margherita Pizza"},
		{ID: 2, Name: "Caesar Salad", Visible: true},
	}

	got := m.BestMatch("margarita pizza", items, Options{PreferVisible: true})
	require.NotNil(t, got)
	assert.Equal(t, uint(1), got.ID)
}

func TestThresholdsAreConfigurable(t *testing.T) {
	strict := NewMatcher(Thresholds{Reject: 0.8, VisibleAccept: 0.9, VisibleBonus: 0})
	assert.Nil(t, strict.BestMatch("margarita pizza", catalog(), Options{}))

	loose := NewMatcher(Thresholds{Reject: 0.01, VisibleAccept: 0.55, VisibleBonus: 0.08})
	got := loose.BestMatch("salad caesar", catalog(), Options{})
	require.NotNil(t, got)
	assert.Equal(t, uint(2), got.ID)
}

func TestBestMatchIsDeterministic(t *testing.T) {
	m := NewMatcher(DefaultThresholds())
	first := m.BestMatch("margarita", catalog(), Options{PreferVisible: true})
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, m.BestMatch("margarita", catalog(), Options{PreferVisible: true}))
	}
}
