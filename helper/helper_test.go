package helper

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmenu/board"
	"smartmenu/intent"
	"smartmenu/model"
	"smartmenu/state"
)

type published struct {
	channel string
	body    []byte
}

type recorder struct {
	mu   sync.Mutex
	msgs []published
}

func (r *recorder) Publish(_ context.Context, channel string, message []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, published{channel: channel, body: message})
	return nil
}

func (r *recorder) channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.channel)
	}
	return out
}

func record(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	prev := Broadcaster
	Broadcaster = r
	t.Cleanup(func() { Broadcaster = prev })
	return r
}

func line(id uint, status int, price float64, itemtype, name string) model.Ordritem {
	it := model.Ordritem{MenuitemId: id + 100, Ordritemprice: price, Status: status}
	it.ID = id
	it.Menuitem = model.Menuitem{Name: name, Itemtype: itemtype, Price: price}
	return it
}

func TestCalculateTotals(t *testing.T) {
	items := []model.Ordritem{
		line(1, model.ItemOrdered, 10, model.ItemFood, "Pasta"),
		line(2, model.ItemAdded, 5.5, model.ItemWine, "Chianti"),
		line(3, model.ItemRemoved, 3, model.ItemFood, "Bread"),
	}
	taxes := []model.Tax{
		{Name: "VAT", Taxpercentage: 20, Taxtype: model.TaxTypeTax, Sequence: 2},
		{Name: "Service", Taxpercentage: 10, Taxtype: model.TaxTypeService, Sequence: 1},
	}

	got := CalculateTotals(items, 2, 1.5, taxes, 2)

	assert.Equal(t, Totals{Nett: 15.5, Covercharge: 3, Service: 1.85, Tax: 3.7, Tip: 2, Gross: 26.05}, got)
}

func TestCalculateTotalsEmptyOrder(t *testing.T) {
	got := CalculateTotals(nil, 0, 2, nil, 0)
	assert.Zero(t, got.Gross)
}

func TestCheckRequestBill(t *testing.T) {
	assert.ErrorIs(t, CheckRequestBill([]model.Ordritem{
		line(1, model.ItemOrdered, 4, model.ItemFood, "Soup"),
		line(2, model.ItemAdded, 4, model.ItemFood, "Soup"),
	}), ErrItemsStillOpen)
	assert.ErrorIs(t, CheckRequestBill([]model.Ordritem{line(1, model.ItemRemoved, 0, model.ItemFood, "Soup")}), ErrNoSubmittedItems)
	assert.ErrorIs(t, CheckRequestBill(nil), ErrNoSubmittedItems)
	assert.NoError(t, CheckRequestBill([]model.Ordritem{
		line(1, model.ItemDelivered, 4, model.ItemFood, "Soup"),
		line(2, model.ItemRemoved, 0, model.ItemFood, "Soup"),
	}))
}

func TestOrderTransitions(t *testing.T) {
	assert.True(t, CanAdvanceOrder(model.OrderOrdered, model.OrderReady))
	assert.True(t, CanAdvanceOrder(model.OrderOrdered, model.OrderOrdered))
	assert.False(t, CanAdvanceOrder(model.OrderReady, model.OrderPreparing))
	assert.True(t, BillSettled(model.OrderPaid))
	assert.False(t, BillSettled(model.OrderDelivered))
	assert.True(t, ClearsTickets(model.OrderDelivered))
	assert.False(t, ClearsTickets(model.OrderReady))
}

func TestCascadeItemsNeverMovesBackwards(t *testing.T) {
	items := []model.Ordritem{
		line(1, model.ItemAdded, 1, model.ItemFood, "a"),
		line(2, model.ItemRemoved, 0, model.ItemFood, "b"),
		line(3, model.ItemOrdered, 1, model.ItemFood, "c"),
		line(4, model.ItemDelivered, 1, model.ItemFood, "d"),
	}

	changed := CascadeItems(items, model.OrderReady)

	require.Len(t, changed, 1)
	assert.Equal(t, uint(3), changed[0].ID)
	assert.Equal(t, []int{model.ItemAdded, model.ItemRemoved, model.ItemPrepared, model.ItemDelivered},
		[]int{items[0].Status, items[1].Status, items[2].Status, items[3].Status})
	assert.Empty(t, CascadeItems(items, model.OrderOpened))
}

func TestStampStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var o model.Ordr
	StampStatus(&o, model.OrderOrdered, now)
	StampStatus(&o, model.OrderOrdered, now.Add(time.Hour))
	StampStatus(&o, model.OrderBillRequested, now)
	StampStatus(&o, model.OrderPaid, now)

	require.NotNil(t, o.OrderedAt)
	assert.Equal(t, now, *o.OrderedAt)
	assert.NotNil(t, o.BillRequestedAt)
	assert.NotNil(t, o.PaidAt)
}

func TestGroupByStation(t *testing.T) {
	ticketID := uint(5)
	onTicket := line(4, model.ItemOrdered, 9, model.ItemFood, "Steak")
	onTicket.StationTicketId = &ticketID
	items := []model.Ordritem{
		line(1, model.ItemAdded, 8, model.ItemWine, "Barolo"),
		line(2, model.ItemAdded, 12, model.ItemFood, "Risotto"),
		line(3, model.ItemOrdered, 3, model.ItemBeverage, "Cola"),
		onTicket,
		line(6, model.ItemRemoved, 0, model.ItemFood, "Salad"),
	}

	batches := GroupByStation(items)

	require.Len(t, batches, 2)
	assert.Equal(t, model.StationKitchen, batches[0].Station)
	require.Len(t, batches[0].Items, 1)
	assert.Equal(t, uint(2), batches[0].Items[0].ID)
	assert.Equal(t, model.StationBar, batches[1].Station)
	assert.Len(t, batches[1].Items, 2)
}

func TestShouldRollupReady(t *testing.T) {
	ready := []model.StationTicket{{Status: model.TicketReady}, {Status: model.TicketCollected}}
	mixed := []model.StationTicket{{Status: model.TicketReady}, {Status: model.TicketPreparing}}

	assert.True(t, ShouldRollupReady(model.OrderPreparing, ready))
	assert.False(t, ShouldRollupReady(model.OrderPreparing, mixed))
	assert.False(t, ShouldRollupReady(model.OrderDelivered, ready))
	assert.False(t, ShouldRollupReady(model.OrderOrdered, nil))
}

func sampleOrder() *model.Ordr {
	tid := uint(3)
	o := &model.Ordr{
		RestaurantId:   7,
		MenuId:         5,
		TablesettingId: tid,
		Status:         model.OrderCodeOrdered,
		Nett:           19,
		Gross:          21.85,
		Ordritems: []model.Ordritem{
			line(1, model.ItemOrdered, 9.5, model.ItemFood, "Margherita Pizza"),
			line(2, model.ItemPrepared, 9.5, model.ItemFood, "Margherita Pizza"),
			line(3, model.ItemRemoved, 0, model.ItemWine, "Barolo"),
		},
		Tablesetting: model.Tablesetting{Name: "T3"},
	}
	o.ID = 42
	return o
}

func sampleSmartmenu() model.Smartmenu {
	tid := uint(3)
	sm := model.Smartmenu{Slug: "tbl-3", RestaurantId: 7, MenuId: 5, TablesettingId: &tid}
	sm.ID = 11
	sm.Restaurant = model.Restaurant{Currency: "eur", AllowAlcohol: true}
	return sm
}

func TestBuildStateRoundTrip(t *testing.T) {
	ctx := BuildState(StateInput{Smartmenu: sampleSmartmenu(), Order: sampleOrder(), SessionID: "s1", CSRFToken: "tok"})
	raw, err := json.Marshal(StateEnvelope(ctx))
	require.NoError(t, err)
	require.True(t, state.LooksLikeState(raw))

	p, err := state.ParsePayload(raw)
	require.NoError(t, err)

	require.True(t, p.HasOrder)
	assert.Equal(t, state.ID(42), p.Order.ID)
	assert.Equal(t, "ordered", p.Order.Status)
	require.Len(t, p.Order.Items, 3)
	assert.Equal(t, "prepared", p.Order.Items[1].Status)
	assert.Equal(t, 2, p.Order.TotalCount)
	assert.Equal(t, 1, p.Order.RemovedCount)
	require.NotNil(t, p.Flags)
	assert.True(t, p.Flags.DisplayRequestBill)
	assert.False(t, p.Flags.DisplayConfirmOrder)
	assert.True(t, p.Flags.MenuItemsEnabled)
	require.NotNil(t, p.Totals)
	assert.Equal(t, 21.85, p.Totals.Gross)
	assert.Equal(t, state.Currency{Code: "EUR", Symbol: "€"}, p.Totals.Currency)
	require.NotNil(t, p.Session)
	assert.Equal(t, "tok", p.Session.CSRFToken)
	assert.Equal(t, "tbl-3", p.Session.Slug)
	require.NotNil(t, p.TableID)
	assert.Equal(t, state.ID(3), *p.TableID)
}

func TestBuildStateWithoutOrder(t *testing.T) {
	ctx := BuildState(StateInput{Smartmenu: sampleSmartmenu()})

	assert.True(t, ctx.Flags.DisplayStartOrder)
	assert.False(t, ctx.Flags.MenuItemsEnabled)
	assert.Nil(t, ctx.Totals)
	assert.Zero(t, ctx.Order.ID)
}

func TestBuildStateFallsBackToLineTotal(t *testing.T) {
	o := sampleOrder()
	o.Gross = 0
	o.Ordritems[0].Status = model.ItemAdded

	ctx := BuildState(StateInput{Smartmenu: sampleSmartmenu(), Order: o})

	assert.Equal(t, 19.0, ctx.Totals.Gross)
	assert.False(t, ctx.Flags.DisplayRequestBill)
	assert.True(t, ctx.Flags.DisplayConfirmOrder)
}

func TestBroadcastTicketEventsDecode(t *testing.T) {
	rec := record(t)
	ticket := model.StationTicket{RestaurantId: 7, OrdrId: 42, Station: model.StationBar, Status: model.TicketOrdered, Sequence: 2}
	ticket.ID = 9
	ticket.Ordritems = []model.Ordritem{line(3, model.ItemOrdered, 6, model.ItemWine, "Barolo")}

	BroadcastNewTicket(context.Background(), ticket, "T3")
	ticket.Status = model.TicketPreparing
	BroadcastTicketStatus(context.Background(), ticket, "T3", model.TicketOrdered)

	require.Equal(t, []string{"bar_7", "bar_7"}, rec.channels())
	ev, err := board.DecodeStationEvent(rec.msgs[0].body)
	require.NoError(t, err)
	nt, ok := ev.(*board.NewTicket)
	require.True(t, ok)
	assert.Equal(t, uint(9), nt.Ticket.ID)
	assert.Equal(t, "T3", nt.Ticket.Table)
	assert.Equal(t, []board.CardItem{{Name: "Barolo"}}, nt.Ticket.Items)

	ev, err = board.DecodeStationEvent(rec.msgs[1].body)
	require.NoError(t, err)
	sc, ok := ev.(*board.TicketStatusChange)
	require.True(t, ok)
	assert.Equal(t, model.TicketOrdered, sc.OldStatus)
	assert.Equal(t, model.TicketPreparing, sc.NewStatus)
}

func TestBroadcastKitchenEventsDecode(t *testing.T) {
	rec := record(t)
	o := *sampleOrder()

	BroadcastNewOrder(context.Background(), o)
	BroadcastStatusChange(context.Background(), o, model.OrderOpened)
	BroadcastInventoryAlert(context.Background(), 7, "Mozzarella", 0, 5)
	BroadcastStaffAssignment(context.Background(), 7, 42, board.Staff{ID: 4, Email: "chef@example.com"})

	require.Len(t, rec.msgs, 4)
	for _, m := range rec.msgs {
		assert.Equal(t, "kitchen_7", m.channel)
		_, err := board.DecodeKitchenEvent(m.body)
		require.NoError(t, err)
	}
	ev, _ := board.DecodeKitchenEvent(rec.msgs[1].body)
	sc := ev.(*board.StatusChange)
	assert.Equal(t, "opened", sc.OldStatus)
	assert.Equal(t, "ordered", sc.NewStatus)
	assert.Equal(t, 2, sc.Order.ItemsCount)

	ev, _ = board.DecodeKitchenEvent(rec.msgs[2].body)
	assert.Equal(t, "critical", ev.(*board.InventoryAlert).Severity)
	assert.Equal(t, "warning", AlertSeverity(3))
}

func TestBroadcastQueueUpdateIsBounded(t *testing.T) {
	rec := record(t)
	orders := make([]model.Ordr, 14)
	for i := range orders {
		orders[i].ID = uint(i + 1)
	}

	BroadcastQueueUpdate(context.Background(), 7, orders)

	ev, err := board.DecodeKitchenEvent(rec.msgs[0].body)
	require.NoError(t, err)
	q := ev.(*board.QueueUpdate)
	assert.Equal(t, 14, *q.QueueLength)
	assert.Len(t, q.Orders, QueueLimit)
}

func TestBroadcastOrderStateReachesBothChannels(t *testing.T) {
	rec := record(t)

	BroadcastOrderState(context.Background(), sampleSmartmenu(), sampleOrder())

	assert.Equal(t, []string{"ordr_42_channel", "ordr_tbl-3_channel"}, rec.channels())
	p, err := state.ParsePayload(rec.msgs[0].body)
	require.NoError(t, err)
	assert.Nil(t, p.Session)
	assert.Equal(t, state.ID(42), p.Order.ID)
}

func TestKitchenMetrics(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ten, twenty := now.Add(-10*time.Minute), now.Add(-20*time.Minute)
	orders := []model.Ordr{
		{Status: model.OrderCodeOrdered, OrderedAt: &ten},
		{Status: model.OrderCodePreparing, OrderedAt: &twenty},
		{Status: model.OrderCodeReady},
	}

	m := KitchenMetrics(orders, now)

	assert.Equal(t, map[string]float64{"pending": 1, "preparing": 1, "ready": 1, "avg_wait_minutes": 15}, m)
}

func TestPaymentGatewayRoundTrip(t *testing.T) {
	g := NewPaymentGateway(model.PaymentConfig{Merchant: "m1", HashSecret: "s3cret", BaseURL: "https://pay.example.com/checkout", ReturnURL: "https://app.example.com/payments/return"})
	g.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	raw, err := g.BuildPaymentURL(model.PaymentRequest{Amount: 26.05, Currency: "EUR", Reference: "ref-1", OrderInfo: "Order 42"})
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "2605", q.Get("amount"))
	sig := q.Get("signature")
	q.Del("signature")
	assert.Equal(t, g.Sign(q), sig)

	back := url.Values{"reference": {"ref-1"}, "amount": {"2605"}, "result": {"success"}}
	back.Set("signature", g.Sign(back))
	res := g.VerifyReturn(back)
	assert.True(t, res.IsSuccess)
	assert.Equal(t, "ref-1", res.Reference)
	assert.Equal(t, 26.05, res.Amount)
	assert.NotEmpty(t, back.Get("signature"))

	back.Set("amount", "1")
	assert.False(t, g.VerifyReturn(back).IsSuccess)

	declined := url.Values{"reference": {"ref-1"}, "result": {"declined"}}
	declined.Set("signature", g.Sign(declined))
	res = g.VerifyReturn(declined)
	assert.False(t, res.IsSuccess)
	assert.Equal(t, "ref-1", res.Reference)
}

func TestPaymentGatewayRequiresConfig(t *testing.T) {
	_, err := NewPaymentGateway(model.PaymentConfig{}).BuildPaymentURL(model.PaymentRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrPaymentNotConfigured)
}

func TestCSRFToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	sid, tok, err := IssueCSRFToken()
	require.NoError(t, err)
	got, err := VerifyCSRFToken(tok)
	require.NoError(t, err)
	assert.Equal(t, sid, got)

	_, err = VerifyCSRFToken(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidCSRF)
	_, err = VerifyCSRFToken("")
	assert.ErrorIs(t, err, ErrInvalidCSRF)

	staff, err := GenerateAccessToken(model.TokenClaim{UserId: 3, Email: "a@b.c"}, time.Hour)
	require.NoError(t, err)
	_, err = VerifyCSRFToken(staff)
	assert.ErrorIs(t, err, ErrInvalidCSRF, "staff tokens are not csrf tokens")
}

func TestAccessTokenClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tok, err := GenerateAccessToken(model.TokenClaim{UserId: 3, Email: "chef@example.com", RestaurantId: 7}, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(tok)
	require.NoError(t, err)
	claim, err := ClaimFromToken(parsed)
	require.NoError(t, err)
	assert.Equal(t, model.TokenClaim{UserId: 3, Email: "chef@example.com", RestaurantId: 7}, claim)

	_, csrf, err := IssueCSRFToken()
	require.NoError(t, err)
	parsed, err = ParseToken(csrf)
	require.NoError(t, err)
	_, err = ClaimFromToken(parsed)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestPresenceRules(t *testing.T) {
	assert.Equal(t, model.PresenceActive, PresenceStatus("appear"))
	assert.Equal(t, model.PresenceIdle, PresenceStatus("away"))
	assert.Equal(t, model.PresenceOffline, PresenceStatus("disconnect"))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stale := 5 * time.Minute
	cases := []struct {
		status  string
		quiet   time.Duration
		want    string
		changed bool
	}{
		{model.PresenceActive, time.Minute, model.PresenceActive, false},
		{model.PresenceActive, 6 * time.Minute, model.PresenceIdle, true},
		{model.PresenceIdle, 6 * time.Minute, model.PresenceIdle, false},
		{model.PresenceIdle, 11 * time.Minute, model.PresenceOffline, true},
		{model.PresenceActive, 11 * time.Minute, model.PresenceOffline, true},
	}
	for _, tc := range cases {
		got, changed := SweepStatus(model.Presence{Status: tc.status, Timestamp: now.Add(-tc.quiet)}, now, stale)
		assert.Equal(t, tc.want, got, "%s after %s", tc.status, tc.quiet)
		assert.Equal(t, tc.changed, changed)
	}
}

func TestVoiceInterpretResolvesMenuItem(t *testing.T) {
	p := VoiceProcessor{Matcher: intent.NewMatcher(intent.DefaultThresholds())}
	catalog := []intent.Item{
		{ID: 12, Name: "Margherita Pizza", Price: 9.5, Visible: true},
		{ID: 13, Name: "Caesar Salad", Price: 8, Visible: true},
	}

	in := p.Interpret("add two margherita pizza please", "en", catalog)
	assert.Equal(t, intent.AddItem, in.Type)
	assert.Equal(t, 2, in.Qty)
	assert.Equal(t, uint(12), in.MenuitemID)
	assert.GreaterOrEqual(t, in.Confidence, 0.45)

	in = p.Interpret("add asdlkjasd", "en", catalog)
	assert.Equal(t, intent.AddItem, in.Type)
	assert.Zero(t, in.MenuitemID)

	in = p.Interpret("can we get the bill", "en", catalog)
	assert.Equal(t, intent.RequestBill, in.Type)
}

func TestVoiceTranscriptNeedsRecognizerForAudio(t *testing.T) {
	p := VoiceProcessor{}
	_, err := p.transcript(context.Background(), &model.VoiceCommand{Audio: []byte{1, 2}})
	assert.ErrorIs(t, err, ErrNoTranscriber)

	text, err := p.transcript(context.Background(), &model.VoiceCommand{Transcript: "  close the order "})
	require.NoError(t, err)
	assert.Equal(t, "close the order", text)
}

func TestSmartmenuSlugBase(t *testing.T) {
	assert.Equal(t, "chez-leon-table-4", SmartmenuSlugBase("Chez Léon", "Table 4"))
	assert.Equal(t, "smartmenu", SmartmenuSlugBase("", ""))
}
