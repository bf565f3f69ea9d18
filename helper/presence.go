package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"smartmenu/constants"
	"smartmenu/logger"
	"smartmenu/model"
)

// PresenceStatus maps a heartbeat event to the status it announces.
func PresenceStatus(event string) string {
	switch event {
	case "appear":
		return model.PresenceActive
	case "away":
		return model.PresenceIdle
	}
	return model.PresenceOffline
}

func presenceKey(resource string, id uint) string {
	return fmt.Sprintf(constants.PresenceKey, resource, id)
}

// SweepStatus decides what a stale sweep does with an entry: active users
// quiet for staleAfter go idle, anyone quiet for twice that goes offline.
func SweepStatus(p model.Presence, now time.Time, staleAfter time.Duration) (string, bool) {
	quiet := now.Sub(p.Timestamp)
	switch {
	case p.Status != model.PresenceOffline && quiet >= 2*staleAfter:
		return model.PresenceOffline, true
	case p.Status == model.PresenceActive && quiet >= staleAfter:
		return model.PresenceIdle, true
	}
	return p.Status, false
}

// PresenceStore keeps one hash per resource, keyed by user id.
type PresenceStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// Record stores the heartbeat and broadcasts it to the resource's presence
// channel. Offline users are dropped from the hash.
func (s PresenceStore) Record(ctx context.Context, claim model.TokenClaim, in model.PresenceInput, now time.Time) (model.Presence, error) {
	p := model.Presence{
		UserId:     claim.UserId,
		Email:      claim.Email,
		Status:     PresenceStatus(in.Event),
		Event:      in.Event,
		Resource:   in.Resource,
		ResourceId: in.ResourceId,
		Timestamp:  now.UTC(),
	}
	key := presenceKey(in.Resource, in.ResourceId)
	field := strconv.FormatUint(uint64(claim.UserId), 10)

	if p.Status == model.PresenceOffline {
		if err := s.Client.HDel(ctx, key, field).Err(); err != nil {
			return p, err
		}
	} else {
		raw, err := json.Marshal(p)
		if err != nil {
			return p, err
		}
		pipe := s.Client.TxPipeline()
		pipe.HSet(ctx, key, field, raw)
		pipe.Expire(ctx, key, s.TTL)
		if _, err := pipe.Exec(ctx); err != nil {
			return p, err
		}
	}
	publishJSON(ctx, PresenceChannel(in.Resource, in.ResourceId), p)
	return p, nil
}

// List returns the users currently present on a resource.
func (s PresenceStore) List(ctx context.Context, resource string, id uint) ([]model.Presence, error) {
	all, err := s.Client.HGetAll(ctx, presenceKey(resource, id)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Presence, 0, len(all))
	for _, raw := range all {
		var p model.Presence
		if json.Unmarshal([]byte(raw), &p) == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

// Sweep ages out quiet users across every presence hash.
func (s PresenceStore) Sweep(ctx context.Context, now time.Time, staleAfter time.Duration) {
	iter := s.Client.Scan(ctx, 0, strings.Replace(constants.PresenceKey, "%s:%d", "*", 1), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		all, err := s.Client.HGetAll(ctx, key).Result()
		if err != nil {
			appLog.Warn("presence_sweep", err, logger.Fields{"key": key})
			continue
		}
		for field, raw := range all {
			var p model.Presence
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				s.Client.HDel(ctx, key, field)
				continue
			}
			status, changed := SweepStatus(p, now, staleAfter)
			if !changed {
				continue
			}
			p.Status = status
			p.Event = "stale"
			if status == model.PresenceOffline {
				s.Client.HDel(ctx, key, field)
			} else if b, err := json.Marshal(p); err == nil {
				s.Client.HSet(ctx, key, field, b)
			}
			publishJSON(ctx, PresenceChannel(p.Resource, p.ResourceId), p)
		}
	}
	if err := iter.Err(); err != nil {
		appLog.Warn("presence_sweep", err, nil)
	}
}
