package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dyluth/roster/pkg/state"
)

// ChangeOp is the kind of write a ChangeEvent reports.
type ChangeOp string

const (
	OpPut    ChangeOp = "put"
	OpDelete ChangeOp = "delete"
)

// ChangeEvent announces a write to one record.
type ChangeEvent struct {
	Collection state.Path `json:"collection"`
	ID         string     `json:"id"`
	Op         ChangeOp   `json:"op"`
	AtMs       int64      `json:"at_ms"`
}

// ChangeSubscription is an active subscription to a workspace's change events.
// Caller must call Close() when done.
type ChangeSubscription struct {
	events <-chan ChangeEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of change events.
// It is closed when the subscription is closed or its context is cancelled.
func (s *ChangeSubscription) Events() <-chan ChangeEvent {
	return s.events
}

// Errors returns malformed-message errors. The subscription keeps running
// after an error; the offending message is skipped.
func (s *ChangeSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
// Safe to call multiple times.
func (s *ChangeSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeChanges subscribes to change events for this workspace.
// The subscription is confirmed by Redis before SubscribeChanges returns, so
// writes made afterwards are observed.
//
// Delivery is at-most-once: a slow reader can miss events.
func (c *Client) SubscribeChanges(ctx context.Context) (*ChangeSubscription, error) {
	pubsub := c.rdb.Subscribe(ctx, ChangesChannel(c.workspace))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to change events: %w", err)
	}

	eventsChan := make(chan ChangeEvent, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal change event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &ChangeSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
