package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"

	"smartmenu/database"
	"smartmenu/helper"
	"smartmenu/logger"
	"smartmenu/model"
)

// room is every socket listening on one pub/sub channel. The Redis
// subscription lives as long as the room has members.
type room struct {
	clients map[*websocket.Conn]bool
	pubsub  *redis.PubSub
}

var (
	rooms = make(map[string]*room)
	mu    sync.Mutex
)

func join(channel string, c *websocket.Conn) bool {
	mu.Lock()
	defer mu.Unlock()
	r := rooms[channel]
	if r == nil {
		if helper.RedisClient == nil {
			return false
		}
		r = &room{
			clients: make(map[*websocket.Conn]bool),
			pubsub:  helper.RedisClient.Subscribe(context.Background(), channel),
		}
		rooms[channel] = r
		go pump(channel, r)
	}
	r.clients[c] = true
	return true
}

func leave(channel string, c *websocket.Conn) {
	mu.Lock()
	defer mu.Unlock()
	r := rooms[channel]
	if r == nil {
		return
	}
	delete(r.clients, c)
	if len(r.clients) == 0 {
		r.pubsub.Close()
		delete(rooms, channel)
	}
}

// pump fans Redis messages out to the room until its subscription closes.
func pump(channel string, r *room) {
	for msg := range r.pubsub.Channel() {
		payload := []byte(msg.Payload)

		mu.Lock()
		for conn := range r.clients {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(r.clients, conn)
			}
		}
		mu.Unlock()
	}
	appLog.Debug("ws_room_closed", logger.Fields{"channel": channel})
}

// CloseRooms drops every subscription, used on shutdown.
func CloseRooms() {
	mu.Lock()
	defer mu.Unlock()
	for channel, r := range rooms {
		r.pubsub.Close()
		for conn := range r.clients {
			conn.Close()
		}
		delete(rooms, channel)
	}
}

// serveRoom joins the socket to channel, optionally sends a first snapshot
// and blocks until the client goes away.
func serveRoom(c *websocket.Conn, channel string, initial any) {
	defer c.Close()
	if initial != nil {
		if raw, err := json.Marshal(initial); err == nil {
			if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		}
	}
	if !join(channel, c) {
		appLog.Warn("ws_join", errRedisUnavailable, logger.Fields{"channel": channel})
		return
	}
	defer leave(channel, c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func wsUint(c *websocket.Conn, key string) uint {
	n, _ := strconv.ParseUint(c.Params(key), 10, 64)
	return uint(n)
}

func KitchenSocket(c *websocket.Conn) {
	rid := wsUint(c, "rid")
	if rid == 0 {
		c.Close()
		return
	}
	serveRoom(c, helper.KitchenChannel(rid), nil)
}

func StationSocket(c *websocket.Conn) {
	rid, station := wsUint(c, "rid"), c.Params("station")
	if rid == 0 || (station != model.StationKitchen && station != model.StationBar) {
		c.Close()
		return
	}
	serveRoom(c, helper.StationChannel(station, rid), nil)
}

// OrderSocket accepts an order id or a smartmenu slug and starts with the
// current order state.
func OrderSocket(c *websocket.Conn) {
	key := c.Params("id")
	if id, err := strconv.ParseUint(key, 10, 64); err == nil && id > 0 {
		var initial any
		var o model.Ordr
		if database.DB.Select("id", "restaurant_id").First(&o, id).Error == nil {
			if full, err := helper.LoadOrder(database.DB, o.RestaurantId, o.ID); err == nil {
				st := helper.BuildState(helper.StateInput{Order: full})
				st.Session = nil
				initial = helper.StateEnvelope(st)
			}
		}
		serveRoom(c, helper.OrderChannel(uint(id)), initial)
		return
	}

	var initial any
	if sm, err := findSmartmenu(key); err == nil {
		if o, err := helper.OpenOrderForTable(database.DB, sm); err == nil {
			st := helper.BuildState(helper.StateInput{Smartmenu: sm, Order: o})
			st.Session = nil
			initial = helper.StateEnvelope(st)
		}
	}
	serveRoom(c, helper.OrderSlugChannel(key), initial)
}

func PresenceSocket(c *websocket.Conn) {
	id := wsUint(c, "id")
	if id == 0 {
		c.Close()
		return
	}
	serveRoom(c, helper.PresenceChannel(c.Params("resource"), id), nil)
}
