// Package dbstore defines the abstract backend-store contract and the
// multi-namespace fan-out logic built on top of it, grounded field-for-
// field on original_source's sonic_ax_impl.mibs.Namespace class.
package dbstore

import "context"

// EventKind distinguishes a keyspace-notification event.
type EventKind int

const (
	EventSet EventKind = iota
	EventDel
	EventExpired
)

// Event is one keyspace change notification.
type Event struct {
	Kind EventKind
	Key  string
}

// Client is the abstract backend-store contract every updater and MIB
// module is written against; no concrete wire protocol leaks past this
// interface.
type Client interface {
	// Namespace is this client's namespace label; "" denotes the host
	// namespace.
	Namespace() string
	// Connect establishes the connection to dbName, idempotent.
	Connect(ctx context.Context, dbName string) error
	// GetAll returns the field/value hash at key, or an empty (non-nil)
	// map if key does not exist.
	GetAll(ctx context.Context, dbName, key string) (map[string]string, error)
	// Keys returns every key matching pattern, or an empty (non-nil)
	// slice when nothing matches.
	Keys(ctx context.Context, dbName, pattern string) ([]string, error)
	// SubscribeKeyspace returns a channel of Events for keys matching
	// pattern; the channel is closed when ctx is canceled or Close is
	// called.
	SubscribeKeyspace(ctx context.Context, dbName, pattern string) (<-chan Event, error)
	// Close releases the connection and any outstanding subscriptions.
	Close() error
}
