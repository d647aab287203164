package repository

import (
	"fmt"

	"github.com/dyluth/roster/pkg/state"
)

// Redis key pattern helpers
//
// All keys and channels are namespaced by workspace so several planning
// boards can share one Redis server.
//
// Record pattern: roster:{workspace}:{collection}:{id}
// Index pattern:  roster:{workspace}:{collection}:index

// RecordKey returns the Redis key of the hash holding one record.
// Pattern: roster:{workspace}:{collection}:{id}
func RecordKey(workspace string, collection state.Path, id string) string {
	return fmt.Sprintf("roster:%s:%s:%s", workspace, collection, id)
}

// IndexKey returns the ZSET listing a collection's record IDs in insertion order.
// Pattern: roster:{workspace}:{collection}:index
func IndexKey(workspace string, collection state.Path) string {
	return fmt.Sprintf("roster:%s:%s:index", workspace, collection)
}

// SequenceKey returns the counter used to score index entries.
// Pattern: roster:{workspace}:seq
func SequenceKey(workspace string) string {
	return fmt.Sprintf("roster:%s:seq", workspace)
}

// ChangesChannel returns the Pub/Sub channel carrying ChangeEvents.
// Pattern: roster:{workspace}:changes
func ChangesChannel(workspace string) string {
	return fmt.Sprintf("roster:%s:changes", workspace)
}
