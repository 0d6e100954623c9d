package checkpointer

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"
)

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	object   Serializable // Object to save
	store    Store

	// key returns the key to save the object under.
	//
	// If each serialized object should be saved under a separate key
	// with an incremented number as a suffix (e.g. qtable1.bin,
	// qtable2.bin, ..., qtableK.bin), use Enumerate. If only the
	// latest snapshot matters, use Fixed. Otherwise, Timestamp gives
	// unique keys ordered by time:
	//
	// n := NewNEpisode(100, object, store, Timestamp("qtable", ".bin"))
	key func() string
}

// NewNEpisode returns a checkpointer that saves object to store every
// n completed episodes
func NewNEpisode(n int, object Serializable, store Store,
	key func() string) (Checkpointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newNEpisode: interval must be positive, "+
			"got %v", n)
	}
	if object == nil || store == nil || key == nil {
		return nil, fmt.Errorf("newNEpisode: object, store and key " +
			"must all be set")
	}

	return &nEpisode{
		interval: n,
		object:   object,
		store:    store,
		key:      key,
	}, nil
}

// Checkpoint saves the Checkpointer's tracked object if episode is a
// positive multiple of the checkpointing interval
func (n *nEpisode) Checkpoint(ctx context.Context, episode int) error {
	if episode <= 0 || episode%n.interval != 0 {
		return nil
	}

	data, err := n.object.GobEncode()
	if err != nil {
		return fmt.Errorf("checkpoint: could not encode: %w", err)
	}

	key := n.key()
	if err := n.store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	klog.V(1).InfoS("Saved checkpoint", "key", key, "episode", episode,
		"bytes", len(data))
	return nil
}
