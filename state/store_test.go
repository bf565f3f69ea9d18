package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullState = `{
  "state": {
    "session": {"id": "s1", "slug": "table-7", "csrfToken": "tok"},
    "order": {"id": 42, "status": "Ordered", "items": [
      {"id": 1, "menuitem_id": 9, "status": "opened", "price": 5.5},
      {"id": 2, "menuitem_id": 9, "status": "ORDERED", "price": 5.5}
    ], "totalCount": 2, "openedCount": 1},
    "totals": {"nett": 11, "gross": 12.1, "currency": {"code": "EUR", "symbol": "€"}},
    "flags": {"menuItemsEnabled": true, "displayRequestBill": true},
    "tableId": "5",
    "menuId": 3,
    "restaurant": {"id": 7, "allowAlcohol": true},
    "participants": {"orderParticipantId": 11},
    "version": 4
  }
}`

func TestApplyStateJSON(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.ApplyStateJSON([]byte(fullState)))

	ctx := s.Snapshot()
	assert.Equal(t, ID(42), ctx.Order.ID)
	assert.Len(t, ctx.Order.Items, 2)
	assert.Equal(t, "ordered", ctx.Order.Items[1].Status)
	assert.Equal(t, 2, ctx.Order.TotalCount)
	assert.Equal(t, "€", ctx.Totals.Currency.Symbol)
	assert.True(t, ctx.Flags.MenuItemsEnabled)
	assert.Equal(t, ID(5), ctx.TableID)
	assert.Equal(t, int64(4), ctx.Version)
	assert.True(t, s.Hydrated())
	assert.Equal(t, "ordered", s.CurrentOrderStatus())
	assert.Equal(t, "table-7", s.Slug())
	assert.Equal(t, "tok", s.CSRFToken())
}

func TestApplyStateWithoutOrderKeepsPreviousOrder(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.ApplyStateJSON([]byte(fullState)))
	require.NoError(t, s.ApplyStateJSON([]byte(`{"flags": {"menuItemsEnabled": false}, "version": 5}`)))

	ctx := s.Snapshot()
	assert.Equal(t, ID(42), ctx.Order.ID)
	assert.Len(t, ctx.Order.Items, 2)
	assert.False(t, ctx.Flags.MenuItemsEnabled)
	assert.Equal(t, int64(5), ctx.Version)
	assert.Equal(t, ID(7), ctx.Restaurant.ID)
	assert.Equal(t, "table-7", ctx.Session.Slug)
}

func TestApplyStateWithOrderReplacesIt(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.ApplyStateJSON([]byte(fullState)))
	require.NoError(t, s.ApplyStateJSON([]byte(`{"order": null}`)))

	ctx := s.Snapshot()
	assert.Equal(t, ID(0), ctx.Order.ID)
	assert.Empty(t, ctx.Order.Items)
	assert.Equal(t, 0, ctx.Order.TotalCount)
	// Order cleared, menu context kept.
	assert.Equal(t, ID(3), ctx.MenuID)
}

func TestRestaurantMergesFieldByField(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.ApplyStateJSON([]byte(fullState)))
	require.NoError(t, s.ApplyStateJSON([]byte(`{"restaurant": {"allowedNow": true}}`)))

	r := s.Snapshot().Restaurant
	assert.Equal(t, ID(7), r.ID)
	assert.True(t, r.AllowAlcohol)
	assert.True(t, r.AllowedNow)
}

func TestAccessorFallbackChain(t *testing.T) {
	dataset := Attrs{
		AttrOrderID:      "100",
		AttrTableID:      "12",
		AttrMenuID:       "3",
		AttrRestaurantID: "7",
		AttrEmployeeID:   "",
		AttrOrderStatus:  "OPENED",
	}
	s := NewStore(nil, dataset)

	id, ok := s.CurrentOrderID()
	assert.True(t, ok)
	assert.Equal(t, ID(100), id)
	assert.Equal(t, "opened", s.CurrentOrderStatus())
	_, ok = s.CurrentEmployeeID()
	assert.False(t, ok)

	s.SetLegacy(Attrs{AttrOrderID: "101", AttrEmployeeID: "8"})
	id, _ = s.CurrentOrderID()
	assert.Equal(t, ID(101), id)
	eid, ok := s.CurrentEmployeeID()
	assert.True(t, ok)
	assert.Equal(t, ID(8), eid)

	require.NoError(t, s.ApplyStateJSON([]byte(`{"order": {"id": 42, "status": "billrequested"}}`)))
	id, _ = s.CurrentOrderID()
	assert.Equal(t, ID(42), id)
	assert.Equal(t, "billrequested", s.CurrentOrderStatus())

	// Table id is not in live state yet, so it still comes from the dataset.
	tid, ok := s.CurrentTableID()
	assert.True(t, ok)
	assert.Equal(t, ID(12), tid)
	rid, _ := s.RestaurantID()
	assert.Equal(t, ID(7), rid)
}

func TestStateChangedIsPublished(t *testing.T) {
	bus := NewBus()
	s := NewStore(bus, nil)
	var got []Context
	unsub := bus.Subscribe(TopicStateChanged, func(ev Event) {
		got = append(got, ev.Payload.(Context))
	})

	stop := s.Listen()
	bus.Publish(TopicStateUpdate, []byte(`{"order": {"id": 1, "status": "opened"}}`))
	stop()
	bus.Publish(TopicStateUpdate, []byte(`{"order": {"id": 2}}`))
	unsub()

	require.Len(t, got, 1)
	assert.Equal(t, ID(1), got[0].Order.ID)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.ApplyStateJSON([]byte(fullState)))
	snap := s.Snapshot()
	snap.Order.Items[0].Status = "removed"
	assert.Equal(t, "opened", s.OrderItems()[0].Status)
}

func TestLooksLikeState(t *testing.T) {
	assert.True(t, LooksLikeState([]byte(`{"state": {}}`)))
	assert.True(t, LooksLikeState([]byte(`{"menuId": 3}`)))
	assert.False(t, LooksLikeState([]byte(`{"ok": true}`)))
	assert.False(t, LooksLikeState([]byte(`{"order": null}`)))
	assert.False(t, LooksLikeState([]byte(`not json`)))
}

func TestIDDecoding(t *testing.T) {
	p, err := ParsePayload([]byte(`{"tableId": "", "menuId": null, "employeeId": "9"}`))
	require.NoError(t, err)
	require.NotNil(t, p.TableID)
	assert.Equal(t, ID(0), *p.TableID)
	assert.Nil(t, p.MenuID)
	assert.Equal(t, ID(9), *p.EmployeeID)

	_, err = ParsePayload([]byte(`{"tableId": "abc"}`))
	assert.Error(t, err)
}
