package dispatcher

import (
	"context"
	"fmt"

	"smartmenu/logger"
	"smartmenu/state"
)

type PricingMode string

const (
	PerPerson PricingMode = "per_person"
	PerTable  PricingMode = "per_table"
)

// Line is one order line a bundle expands into.
type Line struct {
	MenuitemID state.ID
	Price      float64
}

// Bundle is a tasting menu: a carrier item priced for the whole bundle, an
// optional wine pairing and any supplements.
type Bundle struct {
	Carrier     state.ID
	Mode        PricingMode
	Price       float64
	Quantity    int
	Pairing     *Line
	Supplements []Line
}

// Lines expands the bundle in posting order. Per person, every unit gets the
// carrier, the pairing and each supplement. Per table, the carrier is a single
// line at the table price and only pairing and supplements repeat.
func (b Bundle) Lines() []Line {
	qty := b.Quantity
	if qty <= 0 {
		qty = 1
	}
	var out []Line
	if b.Mode == PerTable {
		out = append(out, Line{MenuitemID: b.Carrier, Price: b.Price})
	}
	for i := 0; i < qty; i++ {
		if b.Mode != PerTable {
			out = append(out, Line{MenuitemID: b.Carrier, Price: b.Price})
		}
		if b.Pairing != nil {
			out = append(out, *b.Pairing)
		}
		out = append(out, b.Supplements...)
	}
	return out
}

// AddBundle posts every line of b in order and stops at the first failure.
// Lines already posted stay on the order; the count of committed lines is
// returned either way.
func (d *Dispatcher) AddBundle(ctx context.Context, b Bundle) (int, error) {
	if !d.bundleLatch.TryAcquire() {
		return 0, ErrInFlight
	}
	defer d.bundleLatch.ReleaseAfter(d.cfg.Cooldown)

	rid, oid, err := d.acceptingOrder()
	if err != nil {
		return 0, err
	}
	lines := b.Lines()
	for i, l := range lines {
		if err := d.addLine(ctx, rid, oid, l.MenuitemID, l.Price); err != nil {
			d.log.Error("add_bundle", err, logger.Fields{"order_id": oid, "committed": i, "lines": len(lines)})
			return i, fmt.Errorf("bundle line %d of %d: %w", i+1, len(lines), err)
		}
	}
	d.hide(ModalAddItem)
	return len(lines), nil
}
