// Package state provides the in-memory application state store for Roster.
//
// # Overview
//
// The store holds a single tree of application state with fixed top-level
// keys. Collection keys (talents, projects, allocations, areas, clients) hold
// ordered slices of records; the auth and ui keys hold nested containers.
// Values are addressed by dot-separated paths such as "ui.currentPage", which
// resolve one nesting level per segment.
//
// # Notifications
//
// Callers subscribe to a key and receive (newValue, oldValue) whenever that
// key is written. A write to a nested path also notifies subscribers of the
// top-level segment with (currentTopLevelValue, nil), so a widget can watch
// "ui" without knowing which field changed.
//
// Dispatch is synchronous: Set returns only after every callback has run.
// A callback that returns an error or panics is reported to the store's error
// sink as a *SubscriberCallbackError and the remaining callbacks still run.
//
// # Usage Example
//
//	s := state.New(state.WithLogger(logger))
//
//	sub := s.Subscribe(state.PathUI, func(newValue, _ any) error {
//		render(newValue)
//		return nil
//	})
//	defer sub.Close()
//
//	if err := state.Set(s, state.UICurrentPage, "projects"); err != nil {
//		log.Fatal(err)
//	}
//
// # Typed Keys
//
// Key[T] values name each valid path together with the type stored there.
// Get and Set on a Key are type checked at compile time; the untyped
// Store.Get and Store.Set remain available for dynamic paths.
package state
