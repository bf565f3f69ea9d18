package board

import (
	"context"
	"fmt"
	"net/http"

	"smartmenu/dispatcher"
)

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// API is the dashboard side of the REST interface for one restaurant.
type API struct {
	client       *dispatcher.Client
	restaurantID uint
}

func NewAPI(client *dispatcher.Client, restaurantID uint) *API {
	return &API{client: client, restaurantID: restaurantID}
}

func (a *API) FetchOrder(ctx context.Context, id uint) (*OrderCard, error) {
	var out envelope[OrderCard]
	if err := a.client.GetJSON(ctx, fmt.Sprintf("/restaurants/%d/ordrs/%d", a.restaurantID, id), &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (a *API) FetchTicket(ctx context.Context, id uint) (*TicketCard, error) {
	var out envelope[TicketCard]
	if err := a.client.GetJSON(ctx, fmt.Sprintf("/restaurants/%d/station_tickets/%d", a.restaurantID, id), &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// KitchenOrders lists the orders currently in the kitchen flow.
func (a *API) KitchenOrders(ctx context.Context) ([]OrderCard, error) {
	var out envelope[[]OrderCard]
	err := a.client.GetJSON(ctx, fmt.Sprintf("/restaurants/%d/kitchen/orders", a.restaurantID), &out)
	return out.Data, err
}

func (a *API) StationTickets(ctx context.Context, station string) ([]TicketCard, error) {
	var out envelope[[]TicketCard]
	err := a.client.GetJSON(ctx, fmt.Sprintf("/restaurants/%d/stations/%s/tickets", a.restaurantID, station), &out)
	return out.Data, err
}

type statusBody struct {
	Status string `json:"status"`
}

func (a *API) UpdateOrderStatus(ctx context.Context, id uint, status string) error {
	_, err := a.client.Do(ctx, http.MethodPatch,
		fmt.Sprintf("/restaurants/%d/kitchen/orders/%d/status", a.restaurantID, id), statusBody{Status: status})
	return err
}

func (a *API) UpdateTicketStatus(ctx context.Context, id uint, status string) error {
	_, err := a.client.Do(ctx, http.MethodPatch,
		fmt.Sprintf("/restaurants/%d/station_tickets/%d/status", a.restaurantID, id), statusBody{Status: status})
	return err
}

// LoadKitchen seeds a kitchen board from the server.
func LoadKitchen(ctx context.Context, api *API, b *Board) error {
	orders, err := api.KitchenOrders(ctx)
	if err != nil {
		return err
	}
	cards := make([]Card, 0, len(orders))
	for _, o := range orders {
		cards = append(cards, OrderCardToCard(o))
	}
	b.Load(cards)
	return nil
}

func LoadStation(ctx context.Context, api *API, station string, b *Board) error {
	tickets, err := api.StationTickets(ctx, station)
	if err != nil {
		return err
	}
	cards := make([]Card, 0, len(tickets))
	for _, t := range tickets {
		cards = append(cards, TicketCardToCard(t))
	}
	b.Load(cards)
	return nil
}
