package state

import (
	"log/slog"
	"slices"
	"sync"
)

// Subscriber is called with the new and previous value of a key.
// Top-level cascade notifications always pass nil as oldValue.
type Subscriber func(newValue, oldValue any) error

// ErrorSink receives subscriber failures. It must not call Set on the
// store that reported the error.
type ErrorSink func(err error)

// Option configures a Store.
type Option func(*Store)

// WithErrorSink routes subscriber failures to sink instead of the logger.
func WithErrorSink(sink ErrorSink) Option {
	return func(s *Store) {
		s.sink = sink
	}
}

// WithLogger sets the logger used by the default error sink.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store holds the application state tree and its subscriber registry.
// The store is safe for concurrent use. Notifications are dispatched
// synchronously after the write lock is released, so a callback may read or
// write the store.
type Store struct {
	mu     sync.RWMutex
	tree   map[string]any
	subs   map[Path][]subscriber
	nextID uint64

	sink   ErrorSink
	logger *slog.Logger
}

type subscriber struct {
	id uint64
	fn Subscriber
}

// New creates a store initialised with the default tree.
func New(opts ...Option) *Store {
	s := &Store{
		tree:   defaultTree(),
		subs:   make(map[Path][]subscriber),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = func(err error) {
			s.logger.Error("state subscriber failed", slog.String("error", err.Error()))
		}
	}
	return s
}

// Get resolves path against the current tree. It returns false if any
// segment is absent or an intermediate value is not a container.
// Containers are returned as copies.
func (s *Store) Get(path Path) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cur any = s.tree
	for _, seg := range path.Segments() {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cloneValue(cur), true
}

// Set assigns value at path and notifies subscribers.
//
// Subscribers of path receive (value, previous). When path is nested,
// subscribers of its top-level segment then receive (topLevelValue, nil).
// Returns a *KeyPathError if the parent chain does not resolve; in that case
// nothing is written and nobody is notified.
func (s *Store) Set(path Path, value any) error {
	segs := path.Segments()
	for _, seg := range segs {
		if seg == "" {
			return &KeyPathError{Path: path, Reason: "empty segment"}
		}
	}
	if _, ok := topLevel[segs[0]]; !ok {
		return &KeyPathError{Path: path, Segment: segs[0], Reason: "unknown top-level key"}
	}

	value = cloneValue(value)

	s.mu.Lock()
	parent := s.tree
	for _, seg := range segs[:len(segs)-1] {
		next, ok := parent[seg]
		if !ok {
			s.mu.Unlock()
			return &KeyPathError{Path: path, Segment: seg, Reason: "parent does not exist"}
		}
		m, ok := next.(map[string]any)
		if !ok {
			s.mu.Unlock()
			return &KeyPathError{Path: path, Segment: seg, Reason: "parent is not a container"}
		}
		parent = m
	}

	last := segs[len(segs)-1]
	old := parent[last]
	parent[last] = value

	exact := slices.Clone(s.subs[path])
	var (
		notifyValue any
		cascade     []subscriber
		topValue    any
	)
	// value now lives in the tree; later nested writes mutate it under the lock
	if len(exact) > 0 {
		notifyValue = cloneValue(value)
	}
	if len(segs) > 1 {
		top := path.Top()
		cascade = slices.Clone(s.subs[top])
		if len(cascade) > 0 {
			topValue = cloneValue(s.tree[string(top)])
		}
	}
	s.mu.Unlock()

	for _, sub := range exact {
		s.notify(path, sub.fn, cloneValue(notifyValue), old)
	}
	for _, sub := range cascade {
		s.notify(path.Top(), sub.fn, cloneValue(topValue), nil)
	}
	return nil
}

// Subscribe registers fn for key and returns the subscription that removes it.
// key may be a top-level key or any nested path.
func (s *Store) Subscribe(key Path, fn Subscriber) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs[key] = append(s.subs[key], subscriber{id: id, fn: fn})

	return &Subscription{store: s, key: key, id: id}
}

// SubscriberCount returns the number of live subscriptions for key.
func (s *Store) SubscriberCount(key Path) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[key])
}

func (s *Store) unsubscribe(key Path, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := slices.DeleteFunc(slices.Clone(s.subs[key]), func(sub subscriber) bool {
		return sub.id == id
	})
	if len(remaining) == 0 {
		delete(s.subs, key)
		return
	}
	s.subs[key] = remaining
}

// notify runs one callback, converting errors and panics into
// SubscriberCallbackErrors for the sink.
func (s *Store) notify(key Path, fn Subscriber, newValue, oldValue any) {
	defer func() {
		if r := recover(); r != nil {
			s.sink(&SubscriberCallbackError{Key: key, Panic: r})
		}
	}()
	if err := fn(newValue, oldValue); err != nil {
		s.sink(&SubscriberCallbackError{Key: key, Err: err})
	}
}

// Subscription is a registered callback. Close removes it from the store.
type Subscription struct {
	store *Store
	key   Path
	id    uint64
	once  sync.Once
}

// Key returns the key the subscription listens on.
func (sub *Subscription) Key() Path {
	return sub.key
}

// Close unsubscribes. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (sub *Subscription) Close() error {
	sub.once.Do(func() {
		sub.store.unsubscribe(sub.key, sub.id)
	})
	return nil
}

// cloneValue deep-copies nested containers and record collections so callers
// never share backing storage with the tree. Other values are returned as-is.
func cloneValue(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, val := range c {
			out[k] = cloneValue(val)
		}
		return out
	case []Talent:
		return slices.Clone(c)
	case []Project:
		return slices.Clone(c)
	case []Allocation:
		return slices.Clone(c)
	case []Area:
		return slices.Clone(c)
	case []Client:
		return slices.Clone(c)
	case *User:
		if c == nil {
			return c
		}
		u := *c
		return &u
	default:
		return v
	}
}
