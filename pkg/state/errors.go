package state

import "fmt"

// KeyPathError is returned by Set when the path cannot be written: it is
// empty, names an unknown top-level key, or its parent chain does not resolve
// to a container. The store never creates missing containers.
type KeyPathError struct {
	Path    Path
	Segment string
	Reason  string
}

func (e *KeyPathError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("invalid key path %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid key path %q at segment %q: %s", e.Path, e.Segment, e.Reason)
}

// SubscriberCallbackError wraps a callback failure during notification.
// It is delivered to the store's error sink and never returned from Set.
type SubscriberCallbackError struct {
	Key   Path
	Err   error // error returned by the callback, or nil when it panicked
	Panic any   // recovered panic value, or nil
}

func (e *SubscriberCallbackError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("subscriber for %q panicked: %v", e.Key, e.Panic)
	}
	return fmt.Sprintf("subscriber for %q failed: %v", e.Key, e.Err)
}

func (e *SubscriberCallbackError) Unwrap() error {
	return e.Err
}
