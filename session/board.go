package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"smartmenu/board"
	"smartmenu/channel"
	"smartmenu/config"
	"smartmenu/dispatcher"
	"smartmenu/logger"
	"smartmenu/model"
	"smartmenu/presence"
)

// BoardOptions configures a kitchen display (Station empty) or a station display.
type BoardOptions struct {
	BaseURL      string
	HTTP         dispatcher.Doer
	Token        string
	RestaurantID uint
	Station      string

	Notifier board.Notifier
	// Render receives the presence badge strip on every change.
	Render func(count int, badges []presence.Badge)

	Settings config.Settings
	Log      *logger.Logger
}

// bearer adds the staff token to every dashboard request.
type bearer struct {
	next  dispatcher.Doer
	token string
}

func (b bearer) Do(req *http.Request) (*http.Response, error) {
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.next.Do(req)
}

// BoardSession is one open dashboard: the board, its reconciler, the event
// and presence feeds, and the staff heartbeat.
type BoardSession struct {
	Board     *board.Board
	API       *board.API
	Kitchen   *board.KitchenReconciler
	Station   *board.StationReconciler
	Presence  *presence.Tracker
	Heartbeat *presence.Heartbeat

	opts      BoardOptions
	log       *logger.Logger
	closeOnce sync.Once
}

func NewBoard(o BoardOptions) (*BoardSession, error) {
	if o.RestaurantID == 0 {
		return nil, fmt.Errorf("board session: restaurant id required")
	}
	log := o.Log
	if log == nil {
		log = logger.New("board")
	}
	client := dispatcher.NewClient(o.BaseURL, bearer{next: httpClient(o.HTTP), token: o.Token}, nil)
	api := board.NewAPI(client, o.RestaurantID)

	render := o.Render
	if render == nil {
		render = func(int, []presence.Badge) {}
	}
	s := &BoardSession{
		API:      api,
		Presence: presence.NewTracker(render),
		opts:     o,
		log:      log,
	}
	resource := "kitchen"
	if o.Station == "" {
		s.Board = board.New(board.Kitchen)
		s.Kitchen = board.NewKitchenReconciler(s.Board, api, o.Notifier, log)
	} else {
		resource = o.Station
		s.Board = board.New(board.Station)
		s.Station = board.NewStationReconciler(o.Station, s.Board, api, o.Notifier, log)
	}
	s.Heartbeat = presence.NewHeartbeat(presence.NewHTTPSender(client, resource, o.RestaurantID),
		time.Second, o.Settings.PresenceStaleAfter, log)
	return s, nil
}

func (s *BoardSession) resource() string {
	if s.Station != nil {
		return s.opts.Station
	}
	return "kitchen"
}

// Reload replaces the board with the server's current view.
func (s *BoardSession) Reload(ctx context.Context) error {
	if s.Station != nil {
		return board.LoadStation(ctx, s.API, s.opts.Station, s.Board)
	}
	return board.LoadKitchen(ctx, s.API, s.Board)
}

func (s *BoardSession) handleEvent(ctx context.Context, raw []byte) error {
	if s.Station != nil {
		return s.Station.HandleMessage(ctx, raw)
	}
	return s.Kitchen.HandleMessage(ctx, raw)
}

func (s *BoardSession) eventsPath() string {
	if s.Station != nil {
		return fmt.Sprintf("/ws/station/%s/%d", url.PathEscape(s.opts.Station), s.opts.RestaurantID)
	}
	return fmt.Sprintf("/ws/kitchen/%d", s.opts.RestaurantID)
}

func (s *BoardSession) consumer(path string, handle channel.Handler, onConnect func(context.Context) error) (*channel.Consumer, error) {
	u, err := channel.WebsocketURL(s.opts.BaseURL, path)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if s.opts.Token != "" {
		header.Set("Authorization", "Bearer "+s.opts.Token)
	}
	return channel.NewConsumer(channel.Config{URL: u, Header: header, OnConnect: onConnect}, handle, s.log), nil
}

// Run follows the event and presence feeds until ctx is done or one of them
// gives up reconnecting. Every (re)connect of the event feed reloads the
// board so nothing missed while offline is lost.
func (s *BoardSession) Run(ctx context.Context) error {
	events, err := s.consumer(s.eventsPath(), s.handleEvent, s.Reload)
	if err != nil {
		return err
	}
	feed, err := s.consumer(
		fmt.Sprintf("/ws/presence/%s/%d", url.PathEscape(s.resource()), s.opts.RestaurantID),
		func(_ context.Context, raw []byte) error { return s.Presence.HandleMessage(raw) },
		nil,
	)
	if err != nil {
		return err
	}

	s.Heartbeat.Activity()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return events.Run(ctx) })
	g.Go(func() error { return feed.Run(ctx) })
	return g.Wait()
}

// Advance performs the footer action of a card on behalf of staff.
func (s *BoardSession) Advance(ctx context.Context, id uint) error {
	s.Heartbeat.Activity()
	if s.Kitchen != nil {
		return s.Kitchen.Advance(ctx, s.API, id)
	}
	card, ok := s.Board.Card(id)
	if !ok {
		return fmt.Errorf("ticket %d is not on the board", id)
	}
	next, ok := model.NextTicketStatus(card.Status)
	if !ok {
		return fmt.Errorf("ticket %d is already %s", id, card.Status)
	}
	return s.Station.Advance(ctx, s.API, id, next)
}

// Close sends the final disconnect heartbeat.
func (s *BoardSession) Close() {
	s.closeOnce.Do(s.Heartbeat.Close)
}
