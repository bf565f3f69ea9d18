package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"smartmenu/config"
	"smartmenu/dispatcher"
	"smartmenu/intent"
	"smartmenu/logger"
	"smartmenu/session"
	"smartmenu/state"
	"smartmenu/voice"
)

// terminalUI renders dispatcher effects as text.
type terminalUI struct{}

func (terminalUI) Alert(msg string)           { fmt.Fprintln(os.Stderr, "!", msg) }
func (terminalUI) ShowStartOrder()            { fmt.Println("No open order. Run: tablet start --slug <slug>") }
func (terminalUI) HideModal(dispatcher.Modal) {}
func (terminalUI) Redirect(u string)          { fmt.Println("Open to pay:", u) }
func (terminalUI) Spinner(bool)               {}
func (terminalUI) ShowToast(msg string)       { fmt.Println(msg) }
func (terminalUI) HideToast()                 {}

// terminalPage has no buttons; the catalog comes from the menu endpoint.
type terminalPage struct {
	items []intent.Item
}

func (p *terminalPage) Click(voice.Control) bool { return false }

func (p *terminalPage) ShowStartOrder() bool {
	terminalUI{}.ShowStartOrder()
	return true
}

func (p *terminalPage) Catalog() []intent.Item { return p.items }

type menuItem struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func loadCatalog(ctx context.Context, api *dispatcher.Client, slug string) ([]intent.Item, error) {
	var out struct {
		Data []menuItem `json:"data"`
	}
	if err := api.GetJSON(ctx, "/smartmenus/"+url.PathEscape(slug)+"/menuitems", &out); err != nil {
		return nil, err
	}
	items := make([]intent.Item, 0, len(out.Data))
	for _, m := range out.Data {
		items = append(items, intent.Item{ID: m.ID, Name: m.Name, Description: m.Description, Price: m.Price, Visible: true})
	}
	return items, nil
}

func openSession(ctx context.Context, o options, settings config.Settings, log *logger.Logger) (*session.Session, *terminalPage, error) {
	if o.slug == "" {
		return nil, nil, fmt.Errorf("--slug is required")
	}
	page := &terminalPage{}
	s := session.New(session.Options{
		BaseURL:  o.base,
		Dataset:  state.Attrs{state.AttrSlug: o.slug},
		UI:       terminalUI{},
		Page:     page,
		Display:  terminalUI{},
		Locale:   o.locale,
		Settings: settings,
		Log:      log,
	})
	if !s.Hydrate(ctx) {
		s.Close()
		return nil, nil, fmt.Errorf("could not load smartmenu %q", o.slug)
	}
	return s, page, nil
}

func runStart(ctx context.Context, o options, settings config.Settings, log *logger.Logger) error {
	s, _, err := openSession(ctx, o, settings, log)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Dispatcher.StartOrder(ctx, o.capacity); err != nil {
		return err
	}
	id, _ := s.Store.CurrentOrderID()
	fmt.Printf("order %d is %s\n", id, s.Store.CurrentOrderStatus())
	return nil
}

func runSay(ctx context.Context, o options, transcript string, settings config.Settings, log *logger.Logger) error {
	s, page, err := openSession(ctx, o, settings, log)
	if err != nil {
		return err
	}
	defer s.Close()
	if page.items, err = loadCatalog(ctx, s.API, o.slug); err != nil {
		return fmt.Errorf("load menu: %w", err)
	}
	_, err = s.Voice.Say(ctx, transcript)
	return err
}
