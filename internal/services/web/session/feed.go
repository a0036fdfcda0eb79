package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultFeedChannel is the pub/sub channel the auth backend announces
// session changes on.
const DefaultFeedChannel = "warehouse:sessions"

// Feed event names.
const (
	FeedEventUpdated = "updated"
	FeedEventRevoked = "revoked"
)

// FeedEvent announces that the session stored under SessionKey changed.
// SessionKey is Key(token), never the token itself.
type FeedEvent struct {
	SessionKey string `json:"session_key"`
	Event      string `json:"event"`
}

// Invalidator applies session change announcements.
type Invalidator interface {
	Refresh(key string) bool
	Revoke(key string) bool
}

// RedisFeed forwards session change announcements from Redis pub/sub to an
// Invalidator, so role changes and logouts reach open gates without waiting
// for the session TTL.
type RedisFeed struct {
	client  redis.UniversalClient
	channel string
	target  Invalidator
}

// NewRedisFeed validates inputs and builds a feed.
func NewRedisFeed(client redis.UniversalClient, channel string, target Invalidator) (*RedisFeed, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if target == nil {
		return nil, errors.New("session invalidator is required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultFeedChannel
	}
	return &RedisFeed{client: client, channel: channel, target: target}, nil
}

// Run consumes announcements until ctx is cancelled.
func (f *RedisFeed) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := f.Apply(msg.Payload); err != nil {
				log.Printf("session: feed message rejected channel=%s err=%v", f.channel, err)
			}
		}
	}
}

// Apply decodes one announcement and forwards it. Unknown sessions are not an
// error; this instance may simply never have seen them.
func (f *RedisFeed) Apply(payload string) error {
	var event FeedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return fmt.Errorf("decode feed event: %w", err)
	}
	key := strings.TrimSpace(event.SessionKey)
	if key == "" {
		return errors.New("feed event session_key is required")
	}
	switch strings.TrimSpace(event.Event) {
	case FeedEventUpdated:
		f.target.Refresh(key)
	case FeedEventRevoked:
		f.target.Revoke(key)
	default:
		return fmt.Errorf("unknown feed event %q", event.Event)
	}
	return nil
}
