// Package checkpointer implements the persistence boundary of training
// runs: Stores which hold opaque snapshots under string keys, and
// Checkpointers which decide when a snapshot is taken
package checkpointer

import (
	"context"
	"encoding/gob"
	"fmt"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on the
// number of episodes completed so far
type Checkpointer interface {
	Checkpoint(ctx context.Context, episode int) error
}

// Restore loads the snapshot saved under key in store into object
func Restore(ctx context.Context, store Store, key string,
	object Serializable) error {
	data, err := store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	if err := object.GobDecode(data); err != nil {
		return fmt.Errorf("restore: could not decode %v: %w", key, err)
	}
	return nil
}
