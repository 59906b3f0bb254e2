package study

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// SyncChannel is the pub/sub channel study events travel on.
const SyncChannel = "studyhub:study-events"

// Syncer relays study events between sessions through Redis pub/sub. Every
// session publishes its local mutations and folds in everyone else's; the
// Tracker's merge rules make delivery order irrelevant for progress and
// last-write-wins for bookmarks.
type Syncer struct {
	client *redis.Client
	log    *slog.Logger
}

// NewSyncer creates a syncer over an established Redis client.
func NewSyncer(client *redis.Client, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{client: client, log: log}
}

// Publish broadcasts one event to all subscribed sessions.
func (s *Syncer) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode study event: %w", err)
	}
	if err := s.client.Publish(ctx, SyncChannel, raw).Err(); err != nil {
		return fmt.Errorf("publish study event: %w", err)
	}
	return nil
}

// Attach wires a tracker into the sync loop: local mutations are published
// and remote events are applied until ctx is cancelled. Malformed payloads
// are logged and skipped.
func (s *Syncer) Attach(ctx context.Context, t *Tracker) {
	t.Subscribe(func(ev Event) {
		if err := s.Publish(ctx, ev); err != nil {
			s.log.Warn("study event publish failed", "kind", ev.Kind, "error", err)
		}
	})

	sub := s.client.Subscribe(ctx, SyncChannel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.log.Warn("discarding malformed study event", "error", err)
					continue
				}
				t.ApplyRemote(ev)
			}
		}
	}()
}
