package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartmenu/board"
	"smartmenu/config"
	"smartmenu/logger"
	"smartmenu/state"
)

const initialState = `{"state":{"session":{"slug":"tbl-1","csrfToken":"tok"},"order":{"id":42,"status":"opened","items":[]},"tableId":3,"menuId":5,"restaurant":{"id":7}}}`

func TestHydrateAndOrderChannel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/smartmenus/tbl-1.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, initialState)
	})
	mux.HandleFunc("/ws/ordr/tbl-1", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"noise"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"state":{"order":{"id":42,"status":"ordered","items":[{"id":1,"menuitem_id":9,"status":"ordered"}]}}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(Options{
		BaseURL: srv.URL,
		Dataset: state.Attrs{state.AttrSlug: "tbl-1"},
		Log:     logger.Discard("test"),
	})
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	assert.Eventually(t, func() bool { return s.Store.CurrentOrderStatus() == "ordered" }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "tok", s.Store.CSRFToken())
	mid, ok := s.Store.CurrentMenuID()
	assert.True(t, ok)
	assert.Equal(t, state.ID(5), mid)
	assert.Len(t, s.Store.OrderItems(), 1)
}

func TestOrderMessageMustBeState(t *testing.T) {
	s := New(Options{BaseURL: "http://127.0.0.1:0", Log: logger.Discard("test")})
	defer s.Close()

	assert.Error(t, s.handleOrderMessage(context.Background(), []byte(`{"event":"queue_update"}`)))
	assert.Error(t, s.handleOrderMessage(context.Background(), []byte(`not json`)))
	assert.NoError(t, s.handleOrderMessage(context.Background(), []byte(`{"order":{"id":9,"status":"opened"}}`)))
	id, _ := s.Store.CurrentOrderID()
	assert.Equal(t, state.ID(9), id)
}

func TestOrderChannelNeedsSlug(t *testing.T) {
	s := New(Options{BaseURL: "http://127.0.0.1:0", Log: logger.Discard("test")})
	defer s.Close()

	_, err := s.OrderChannel()
	assert.Error(t, err)
}

func TestSessionsDoNotShareState(t *testing.T) {
	a := New(Options{Log: logger.Discard("test")})
	b := New(Options{Log: logger.Discard("test")})
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.Store.ApplyStateJSON([]byte(`{"order":{"id":1,"status":"opened"}}`)))

	_, ok := b.Store.CurrentOrderID()
	assert.False(t, ok)
}

func TestMatcherThresholdsFromSettings(t *testing.T) {
	m := matcherFor(config.Matching{Reject: 0.9})
	assert.Equal(t, 0.9, m.T.Reject)
	assert.Equal(t, 0.55, m.T.VisibleAccept)
}

type recorded struct {
	Method, Path, Auth, Body string
}

func boardServer(t *testing.T) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var hits []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		hits = append(hits, recorded{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(raw)})
		mu.Unlock()
		switch {
		case r.URL.Path == "/restaurants/7/stations/bar/tickets":
			_, _ = io.WriteString(w, `{"status":"success","data":[{"id":11,"order_id":42,"station":"bar","status":"ordered","sequence":1,"items":[{"name":"Negroni"}]}]}`)
		case r.URL.Path == "/restaurants/7/kitchen/orders":
			_, _ = io.WriteString(w, `{"status":"success","data":[{"id":42,"status":"preparing","table":"T3","items_count":2}]}`)
		case strings.HasSuffix(r.URL.Path, "/status"):
			_, _ = io.WriteString(w, `{"status":"success","data":null}`)
		default:
			_, _ = io.WriteString(w, `{}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), hits...)
	}
}

func TestNewBoardRequiresRestaurant(t *testing.T) {
	_, err := NewBoard(BoardOptions{BaseURL: "http://localhost"})
	assert.Error(t, err)
}

func TestStationBoardAdvance(t *testing.T) {
	srv, hits := boardServer(t)
	s, err := NewBoard(BoardOptions{BaseURL: srv.URL, Token: "jwt", RestaurantID: 7, Station: "bar", Log: logger.Discard("test")})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Reload(context.Background()))
	col, ok := s.Board.ColumnOf(11)
	require.True(t, ok)
	assert.Equal(t, board.Pending, col)

	require.NoError(t, s.Advance(context.Background(), 11))

	col, _ = s.Board.ColumnOf(11)
	assert.Equal(t, board.Preparing, col)
	var patch *recorded
	for _, h := range hits() {
		if h.Method == http.MethodPatch {
			h := h
			patch = &h
		}
	}
	require.NotNil(t, patch)
	assert.Equal(t, "/restaurants/7/station_tickets/11/status", patch.Path)
	assert.Equal(t, "Bearer jwt", patch.Auth)
	assert.JSONEq(t, `{"status":"preparing"}`, patch.Body)
}

func TestKitchenBoardAdvanceSendsFooterAction(t *testing.T) {
	srv, hits := boardServer(t)
	s, err := NewBoard(BoardOptions{BaseURL: srv.URL, RestaurantID: 7, Log: logger.Discard("test")})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Reload(context.Background()))
	require.NoError(t, s.Advance(context.Background(), 42))

	var found bool
	for _, h := range hits() {
		if h.Method == http.MethodPatch && h.Path == "/restaurants/7/kitchen/orders/42/status" {
			found = true
			assert.JSONEq(t, `{"status":"ready"}`, h.Body)
		}
	}
	assert.True(t, found)
}
