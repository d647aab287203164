// Package repository persists planning records in Redis and announces
// changes on a Pub/Sub channel.
//
// Every record lives in its own hash, a per-collection ZSET keeps insertion
// order, and each write publishes a ChangeEvent so followers can reload the
// affected collection.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/roster/pkg/state"
	"github.com/redis/go-redis/v9"
)

// Record is implemented by every persisted record type.
type Record interface {
	RecordID() string
	Validate() error
}

// Collection binds a record type to its collection path.
type Collection[T Record] struct {
	path state.Path
}

// Path returns the collection's top-level state path.
func (c Collection[T]) Path() state.Path { return c.path }

// Persisted collections.
var (
	Talents     = Collection[state.Talent]{path: state.PathTalents}
	Projects    = Collection[state.Project]{path: state.PathProjects}
	Allocations = Collection[state.Allocation]{path: state.PathAllocations}
	Areas       = Collection[state.Area]{path: state.PathAreas}
	Clients     = Collection[state.Client]{path: state.PathClients}
)

// Client provides workspace-scoped Redis operations.
// The client is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	workspace string
	now       func() time.Time
}

// NewClient creates a client for the given workspace.
// Returns an error if workspace is empty.
func NewClient(redisOpts *redis.Options, workspace string) (*Client, error) {
	if workspace == "" {
		return nil, fmt.Errorf("workspace name cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		workspace: workspace,
		now:       time.Now,
	}, nil
}

// Workspace returns the namespace the client reads and writes.
func (c *Client) Workspace() string {
	return c.workspace
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Put validates and writes a record, replacing any previous version, then
// publishes a put event. New records are appended to the collection index;
// updates keep their original position.
func Put[T Record](ctx context.Context, c *Client, coll Collection[T], rec T) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid %s record: %w", coll.path, err)
	}

	hash, err := recordToHash(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize %s record: %w", coll.path, err)
	}

	seq, err := c.rdb.Incr(ctx, SequenceKey(c.workspace)).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence number: %w", err)
	}

	id := rec.RecordID()
	key := RecordKey(c.workspace, coll.path, id)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, hash)
		pipe.ZAddNX(ctx, IndexKey(c.workspace, coll.path), redis.Z{Score: float64(seq), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s record to Redis: %w", coll.path, err)
	}

	return c.publish(ctx, ChangeEvent{Collection: coll.path, ID: id, Op: OpPut})
}

// Get retrieves a record by ID.
// Returns redis.Nil if the record doesn't exist. Use IsNotFound() to check.
func Get[T Record](ctx context.Context, c *Client, coll Collection[T], id string) (T, error) {
	var zero T

	hash, err := c.rdb.HGetAll(ctx, RecordKey(c.workspace, coll.path, id)).Result()
	if err != nil {
		return zero, fmt.Errorf("failed to read %s record from Redis: %w", coll.path, err)
	}
	if len(hash) == 0 {
		return zero, redis.Nil
	}

	rec, err := hashToRecord[T](hash)
	if err != nil {
		return zero, fmt.Errorf("failed to deserialize %s record %s: %w", coll.path, id, err)
	}
	return rec, nil
}

// List returns every record of a collection in insertion order.
// Index entries whose hash has disappeared are skipped.
func List[T Record](ctx context.Context, c *Client, coll Collection[T]) ([]T, error) {
	ids, err := c.rdb.ZRange(ctx, IndexKey(c.workspace, coll.path), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s index: %w", coll.path, err)
	}

	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, RecordKey(c.workspace, coll.path, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s records from Redis: %w", coll.path, err)
	}

	for i, cmd := range cmds {
		hash := cmd.Val()
		if len(hash) == 0 {
			continue
		}
		rec, err := hashToRecord[T](hash)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize %s record %s: %w", coll.path, ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes a record and publishes a delete event.
// Returns redis.Nil if the record doesn't exist.
func Delete[T Record](ctx context.Context, c *Client, coll Collection[T], id string) error {
	var removed *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, RecordKey(c.workspace, coll.path, id))
		pipe.ZRem(ctx, IndexKey(c.workspace, coll.path), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s record from Redis: %w", coll.path, err)
	}
	if removed.Val() == 0 {
		return redis.Nil
	}

	return c.publish(ctx, ChangeEvent{Collection: coll.path, ID: id, Op: OpDelete})
}

// Fetch lists the collection at path and returns it as the typed slice the
// state store holds for that path.
func (c *Client) Fetch(ctx context.Context, collection state.Path) (any, error) {
	switch collection {
	case state.PathTalents:
		return List(ctx, c, Talents)
	case state.PathProjects:
		return List(ctx, c, Projects)
	case state.PathAllocations:
		return List(ctx, c, Allocations)
	case state.PathAreas:
		return List(ctx, c, Areas)
	case state.PathClients:
		return List(ctx, c, Clients)
	default:
		return nil, fmt.Errorf("%q is not a persisted collection", collection)
	}
}

func (c *Client) publish(ctx context.Context, ev ChangeEvent) error {
	ev.AtMs = c.now().UnixMilli()
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := c.rdb.Publish(ctx, ChangesChannel(c.workspace), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
