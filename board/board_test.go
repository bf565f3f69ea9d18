package board

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	chimes   atomic.Int32
	desktops atomic.Int32
}

func (n *countingNotifier) Chime()                 { n.chimes.Add(1) }
func (n *countingNotifier) Desktop(string, string) { n.desktops.Add(1) }

type orderFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	order   OrderCard
	err     error
}

func (f *orderFetcher) FetchOrder(ctx context.Context, id uint) (*OrderCard, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	o := f.order
	return &o, nil
}

func newKitchen(f OrderFetcher) (*KitchenReconciler, *countingNotifier) {
	n := &countingNotifier{}
	return NewKitchenReconciler(New(Kitchen), f, n, nil), n
}

func TestDecodeKitchenEvent(t *testing.T) {
	ev, err := DecodeKitchenEvent([]byte(`{"event":"new_order","order":{"id":5,"status":"ordered","created_at":"2026-01-02T10:00:00Z"}}`))
	require.NoError(t, err)
	no, ok := ev.(*NewOrder)
	require.True(t, ok)
	assert.Equal(t, uint(5), no.Order.ID)

	ev, err = DecodeKitchenEvent([]byte(`{"event":"queue_update","queue_length":0}`))
	require.NoError(t, err)
	assert.Equal(t, 0, *ev.(*QueueUpdate).QueueLength)

	for name, raw := range map[string]string{
		"unknown event":    `{"event":"party_time"}`,
		"missing event":    `{"order":{"id":5}}`,
		"new_order no id":  `{"event":"new_order","order":{"status":"ordered"}}`,
		"new_order absent": `{"event":"new_order"}`,
		"status no target": `{"event":"status_change","order_id":5}`,
		"queue no length":  `{"event":"queue_update"}`,
		"staff no staff":   `{"event":"staff_assignment","order_id":5}`,
		"not json":         `{"event":`,
	} {
		_, err := DecodeKitchenEvent([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidEvent, name)
	}
}

func TestDecodeStationEvent(t *testing.T) {
	ev, err := DecodeStationEvent([]byte(`{"event":"status_change","ticket":{"id":3,"order_id":9,"status":"preparing"},"old_status":"ordered","new_status":"preparing"}`))
	require.NoError(t, err)
	sc := ev.(*TicketStatusChange)
	assert.Equal(t, "preparing", sc.NewStatus)

	_, err = DecodeStationEvent([]byte(`{"event":"new_ticket","ticket":{"id":3}}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
	_, err = DecodeStationEvent([]byte(`{"event":"new_order","order":{"id":3}}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestNewOrderGoesOnTop(t *testing.T) {
	k, n := newKitchen(nil)
	ctx := context.Background()

	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"new_order","order":{"id":1,"status":"ordered"}}`)))
	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"new_order","order":{"id":2,"status":"ordered"}}`)))

	b := k.Board()
	cards := b.Cards(Pending)
	require.Len(t, cards, 2)
	assert.Equal(t, uint(2), cards[0].ID)
	assert.Equal(t, 2, b.Badge(Pending))
	assert.False(t, b.EmptyVisible(Pending))
	assert.True(t, b.EmptyVisible(Ready))
	assert.Equal(t, 2, b.Metric(Pending))
	assert.Equal(t, int32(2), n.chimes.Load())
	assert.Equal(t, "bg-danger-subtle", cards[0].Header)
	assert.Equal(t, Action{Label: "Start Preparing", NextStatus: "preparing"}, cards[0].Action)
}

func TestDuplicateNewOrderDoesNotDuplicateCard(t *testing.T) {
	k, n := newKitchen(nil)
	ctx := context.Background()
	msg := []byte(`{"event":"new_order","order":{"id":1,"status":"ordered"}}`)

	require.NoError(t, k.HandleMessage(ctx, msg))
	require.NoError(t, k.HandleMessage(ctx, msg))

	assert.Equal(t, 1, k.Board().Badge(Pending))
	assert.Equal(t, 1, k.Board().Metric(Pending))
	assert.Equal(t, int32(1), n.chimes.Load())
}

func TestRedeliveredNewOrderMovesMetrics(t *testing.T) {
	k, n := newKitchen(nil)
	ctx := context.Background()
	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"new_order","order":{"id":1,"status":"ordered"}}`)))

	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"new_order","order":{"id":1,"status":"preparing"}}`)))

	b := k.Board()
	assert.Equal(t, 0, b.Badge(Pending))
	assert.Equal(t, 1, b.Badge(Preparing))
	assert.Equal(t, 0, b.Metric(Pending))
	assert.Equal(t, 1, b.Metric(Preparing))
	assert.Equal(t, int32(1), n.chimes.Load(), "a redelivery is not a new order")
}

func TestRedeliveredNewTicketMovesMetrics(t *testing.T) {
	s := NewStationReconciler("kitchen", New(Station), nil, nil, nil)
	ctx := context.Background()
	require.NoError(t, s.HandleMessage(ctx, []byte(`{"event":"new_ticket","ticket":{"id":4,"order_id":9,"status":"ordered"}}`)))

	require.NoError(t, s.HandleMessage(ctx, []byte(`{"event":"new_ticket","ticket":{"id":4,"order_id":9,"status":"ready"}}`)))

	b := s.Board()
	assert.Equal(t, 0, b.Metric(Pending))
	assert.Equal(t, 1, b.Metric(Ready))
	assert.Equal(t, 1, b.Badge(Ready))
}

func TestInsertOutcomes(t *testing.T) {
	b := New(Kitchen)
	assert.Equal(t, Inserted, b.Insert(Card{ID: 1, Status: "ordered"}))
	assert.Equal(t, Unchanged, b.Insert(Card{ID: 1, Status: "ordered"}))
	assert.Equal(t, Moved, b.Insert(Card{ID: 1, Status: "ready"}))
	assert.Equal(t, Ignored, b.Insert(Card{ID: 2, Status: "paid"}))
}

func TestStatusChangeIsIdempotent(t *testing.T) {
	k, _ := newKitchen(nil)
	ctx := context.Background()
	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"new_order","order":{"id":7,"status":"ordered"}}`)))
	change := []byte(`{"event":"status_change","order_id":7,"old_status":"ordered","new_status":"preparing"}`)

	require.NoError(t, k.HandleMessage(ctx, change))
	b := k.Board()
	once := [][]Card{b.Cards(Pending), b.Cards(Preparing), b.Cards(Ready)}
	onceMetrics := []int{b.Metric(Pending), b.Metric(Preparing), b.Metric(Ready)}

	require.NoError(t, k.HandleMessage(ctx, change))

	assert.Equal(t, once, [][]Card{b.Cards(Pending), b.Cards(Preparing), b.Cards(Ready)})
	assert.Equal(t, onceMetrics, []int{b.Metric(Pending), b.Metric(Preparing), b.Metric(Ready)})
	assert.Equal(t, 0, b.Badge(Pending))
	assert.Equal(t, 1, b.Badge(Preparing))

	card, ok := b.Card(7)
	require.True(t, ok)
	assert.Equal(t, "bg-warning-subtle", card.Header)
	assert.Equal(t, "Mark Ready", card.Action.Label)
}

func TestTerminalStatusRemovesCard(t *testing.T) {
	k, _ := newKitchen(nil)
	ctx := context.Background()
	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"new_order","order":{"id":7,"status":"ready"}}`)))

	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"status_change","order_id":7,"old_status":"ready","new_status":"delivered"}`)))

	_, ok := k.Board().Card(7)
	assert.False(t, ok)
	assert.True(t, k.Board().EmptyVisible(Ready))
	assert.Equal(t, 0, k.Board().Metric(Ready))
}

func TestSelfHealFetchesMissingCardOnce(t *testing.T) {
	f := &orderFetcher{
		release: make(chan struct{}),
		order:   OrderCard{ID: 9, Status: "ordered", Table: "T4", Items: []CardItem{{Name: "Risotto"}}},
	}
	k, n := newKitchen(f)
	change := []byte(`{"event":"status_change","order_id":9,"old_status":"ordered","new_status":"preparing"}`)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, k.HandleMessage(context.Background(), change))
		}()
	}
	assert.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(f.release)
	wg.Wait()

	b := k.Board()
	assert.Equal(t, int32(1), f.calls.Load())
	require.Equal(t, 1, b.Badge(Preparing))
	card := b.Cards(Preparing)[0]
	assert.Equal(t, "preparing", card.Status, "broadcast status wins over the fetched one")
	assert.Equal(t, "T4", card.Table)
	assert.Equal(t, 0, b.Badge(Pending))
	assert.Equal(t, int32(1), n.chimes.Load())
}

func TestSelfHealSkipsOffBoardStatus(t *testing.T) {
	f := &orderFetcher{order: OrderCard{ID: 9}}
	k, _ := newKitchen(f)

	require.NoError(t, k.HandleMessage(context.Background(),
		[]byte(`{"event":"status_change","order_id":9,"old_status":"ready","new_status":"closed"}`)))

	assert.Zero(t, f.calls.Load())
}

func TestSelfHealFallsBackToEventPayload(t *testing.T) {
	f := &orderFetcher{err: errors.New("boom")}
	k, _ := newKitchen(f)

	require.NoError(t, k.HandleMessage(context.Background(), []byte(
		`{"event":"status_change","order_id":9,"old_status":"ordered","new_status":"ready","order":{"id":9,"status":"ready","table":"T1"}}`)))

	card, ok := k.Board().Card(9)
	require.True(t, ok)
	assert.Equal(t, "T1", card.Table)
}

func TestSelfHealFailureWithoutPayload(t *testing.T) {
	f := &orderFetcher{err: errors.New("boom")}
	k, _ := newKitchen(f)

	err := k.HandleMessage(context.Background(),
		[]byte(`{"event":"status_change","order_id":9,"old_status":"ordered","new_status":"ready"}`))

	assert.Error(t, err)
	assert.Equal(t, 0, k.Board().Badge(Ready))
}

func TestQueueUpdateAndMetricsClamp(t *testing.T) {
	k, _ := newKitchen(nil)
	ctx := context.Background()

	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"queue_update","queue_length":4}`)))
	assert.Equal(t, 4, k.Board().Metric(Pending))

	k.Board().AdjustMetric(Ready, -3)
	assert.Equal(t, 0, k.Board().Metric(Ready))

	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"metrics_update","metrics":{"avg_prep_minutes":12.5}}`)))
	assert.Equal(t, 12.5, k.Board().Stats()["avg_prep_minutes"])
}

func TestInventoryAlertAndStaffAssignment(t *testing.T) {
	k, n := newKitchen(nil)
	ctx := context.Background()

	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"inventory_alert","item_name":"Basil","current_level":0,"threshold":5,"severity":"critical"}`)))
	require.NoError(t, k.HandleMessage(ctx, []byte(`{"event":"staff_assignment","order_id":3,"staff":{"id":8,"email":"chef@example.com"}}`)))

	require.Len(t, k.Board().Alerts(), 1)
	assert.Equal(t, int32(1), n.desktops.Load())
	staff, ok := k.Board().Assignment(3)
	require.True(t, ok)
	assert.Equal(t, "chef@example.com", staff.Email)
}

func TestSortColumn(t *testing.T) {
	b := New(Kitchen)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b.Insert(Card{ID: 1, Status: "ordered", CreatedAt: base})
	b.Insert(Card{ID: 2, Status: "ordered", CreatedAt: base.Add(time.Minute)})
	b.Insert(Card{ID: 3, Status: "ordered", CreatedAt: base.Add(-time.Minute)})

	b.Sort(Pending, true)
	assert.Equal(t, []uint{3, 1, 2}, ids(b.Cards(Pending)))
	b.Sort(Pending, false)
	assert.Equal(t, []uint{2, 1, 3}, ids(b.Cards(Pending)))
}

func ids(cards []Card) []uint {
	out := make([]uint, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

type recordingUpdater struct {
	calls []string
	err   error
}

func (r *recordingUpdater) UpdateTicketStatus(_ context.Context, _ uint, status string) error {
	r.calls = append(r.calls, status)
	return r.err
}

func TestStationFlow(t *testing.T) {
	s := NewStationReconciler("bar", New(Station), nil, nil, nil)
	ctx := context.Background()
	require.NoError(t, s.HandleMessage(ctx, []byte(`{"event":"new_ticket","ticket":{"id":4,"order_id":9,"status":"ordered","items":[{"name":"Negroni","notes":["no ice"]}]}}`)))

	up := &recordingUpdater{}
	require.NoError(t, s.Advance(ctx, up, 4, "preparing"))
	assert.Equal(t, []string{"preparing"}, up.calls)
	assert.Equal(t, 1, s.Board().Badge(Preparing))

	// the broadcast of our own change is a replay
	require.NoError(t, s.HandleMessage(ctx, []byte(`{"event":"status_change","ticket":{"id":4,"order_id":9,"status":"preparing"},"old_status":"ordered","new_status":"preparing"}`)))
	assert.Equal(t, 1, s.Board().Metric(Preparing))
	assert.Equal(t, 0, s.Board().Metric(Pending))

	assert.Error(t, s.Advance(ctx, up, 4, "collected"), "skipping ready is not allowed")

	require.NoError(t, s.HandleMessage(ctx, []byte(`{"event":"status_change","ticket":{"id":4,"order_id":9,"status":"ready"},"old_status":"preparing","new_status":"ready"}`)))
	card, _ := s.Board().Card(4)
	assert.Equal(t, Action{Label: "Mark as Collected", NextStatus: "collected"}, card.Action)

	require.NoError(t, s.HandleMessage(ctx, []byte(`{"event":"status_change","ticket":{"id":4,"order_id":9,"status":"collected"},"old_status":"ready","new_status":"collected"}`)))
	_, ok := s.Board().Card(4)
	assert.False(t, ok)
}

func TestStationStatusChangeForUnknownTicketMaterializes(t *testing.T) {
	s := NewStationReconciler("kitchen", New(Station), nil, nil, nil)

	require.NoError(t, s.HandleMessage(context.Background(), []byte(`{"event":"status_change","ticket":{"id":11,"order_id":2,"status":"ready","table":"T9"},"old_status":"preparing","new_status":"ready"}`)))

	card, ok := s.Board().Card(11)
	require.True(t, ok)
	assert.Equal(t, "T9", card.Table)
	assert.Equal(t, 1, s.Board().Badge(Ready))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition("ordered", "preparing"))
	assert.True(t, CanTransition("ready", "collected"))
	assert.False(t, CanTransition("ordered", "ready"))
	assert.False(t, CanTransition("collected", "ordered"))
}
