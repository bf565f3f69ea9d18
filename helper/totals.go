package helper

import (
	"math"
	"sort"

	"smartmenu/model"
)

type Totals struct {
	Nett        float64 `json:"nett"`
	Tax         float64 `json:"tax"`
	Service     float64 `json:"service"`
	Tip         float64 `json:"tip"`
	Covercharge float64 `json:"covercharge"`
	Gross       float64 `json:"gross"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateTotals prices an order. Removed lines do not count; taxes and
// service are percentages of nett plus cover charge, applied in sequence order.
func CalculateTotals(items []model.Ordritem, capacity int, coverPerGuest float64, taxes []model.Tax, tip float64) Totals {
	var t Totals
	for _, it := range items {
		if it.Status == model.ItemRemoved {
			continue
		}
		t.Nett += it.Ordritemprice
	}
	t.Covercharge = float64(capacity) * coverPerGuest
	taxable := t.Nett + t.Covercharge

	sorted := append([]model.Tax(nil), taxes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })
	for _, tx := range sorted {
		amount := tx.Taxpercentage * taxable / 100
		if tx.Taxtype == model.TaxTypeService {
			t.Service += amount
		} else {
			t.Tax += amount
		}
	}
	if tip > 0 {
		t.Tip = tip
	}

	t.Nett = round2(t.Nett)
	t.Covercharge = round2(t.Covercharge)
	t.Tax = round2(t.Tax)
	t.Service = round2(t.Service)
	t.Tip = round2(t.Tip)
	t.Gross = round2(t.Nett + t.Covercharge + t.Tip + t.Service + t.Tax)
	return t
}

// Apply copies the totals onto the order row.
func (t Totals) Apply(o *model.Ordr) {
	o.Nett = t.Nett
	o.Tax = t.Tax
	o.Service = t.Service
	o.Tip = t.Tip
	o.Covercharge = t.Covercharge
	o.Gross = t.Gross
}
