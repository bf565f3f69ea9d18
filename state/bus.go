package state

import (
	"sync"
	"time"
)

type Topic string

const (
	TopicStateUpdate     Topic = "state:update"
	TopicStateChanged    Topic = "state:changed"
	TopicRequestStart    Topic = "ordr:request:start"
	TopicRequestComplete Topic = "ordr:request:complete"
	TopicRequestError    Topic = "ordr:request:error"
	TopicMenuUpdated     Topic = "ordr:menu:updated"
)

type Event struct {
	Topic   Topic
	Payload any
	At      time.Time
}

// Request is the payload of the ordr:request:* topics.
type Request struct {
	Method string
	URL    string
	Body   any
	Status int
	Err    error
}

type Handler func(Event)

type subscriber struct {
	id int
	h  Handler
}

// Bus delivers events synchronously, in publish order, to every subscriber of a topic.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Topic][]subscriber
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscriber)}
}

// Subscribe registers h and returns a func that removes it.
func (b *Bus) Subscribe(t Topic, h Handler) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[t] = append(b.subs[t], subscriber{id: id, h: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[t]
		for i, s := range list {
			if s.id == id {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(t Topic, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	list := append([]subscriber(nil), b.subs[t]...)
	b.mu.RUnlock()

	ev := Event{Topic: t, Payload: payload, At: time.Now()}
	for _, s := range list {
		s.h(ev)
	}
}
