package cmd

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/samuelfneumann/lunarlearn/config"
	"github.com/samuelfneumann/lunarlearn/experiment"
	"github.com/samuelfneumann/lunarlearn/experiment/checkpointer"
)

// newStore returns the Store configured in c, or nil if checkpointing
// is disabled. The returned function releases the store.
func newStore(ctx context.Context, c config.Config) (checkpointer.Store,
	func(), error) {
	switch {
	case c.Checkpoint.RedisAddr != "":
		store := checkpointer.NewRedisStore(c.Checkpoint.RedisAddr,
			c.Checkpoint.RedisPrefix)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("newStore: redis %v: %w",
				c.Checkpoint.RedisAddr, err)
		}
		klog.InfoS("Checkpointing to redis", "address",
			c.Checkpoint.RedisAddr)
		return store, func() { store.Close() }, nil

	case c.Checkpoint.Dir != "":
		store, err := checkpointer.NewFileStore(c.Checkpoint.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("newStore: %w", err)
		}
		klog.InfoS("Checkpointing to directory", "dir", store.Dir())
		return store, func() {}, nil
	}

	return nil, func() {}, nil
}

// attach restores the snapshots of objects from store if requested,
// and registers a checkpointer for each object with loop
func attach(ctx context.Context, c config.Config, store checkpointer.Store,
	loop *experiment.TrainingLoop,
	objects map[string]checkpointer.Serializable) error {
	if store == nil {
		return nil
	}

	for key, object := range objects {
		if c.Checkpoint.Restore {
			err := checkpointer.Restore(ctx, store, key, object)
			if errors.Is(err, checkpointer.ErrNotFound) {
				klog.InfoS("No snapshot to restore", "key", key)
			} else if err != nil {
				return fmt.Errorf("attach: %w", err)
			} else {
				klog.InfoS("Restored snapshot", "key", key)
			}
		}

		ckpt, err := checkpointer.NewNEpisode(c.CheckpointEvery(), object,
			store, checkpointer.Fixed(key))
		if err != nil {
			return fmt.Errorf("attach: %w", err)
		}
		loop.Register(ckpt)
	}
	return nil
}

// saveAll saves every object to store
func saveAll(ctx context.Context, store checkpointer.Store,
	objects map[string]checkpointer.Serializable) error {
	if store == nil {
		return nil
	}

	for key, object := range objects {
		data, err := object.GobEncode()
		if err != nil {
			return fmt.Errorf("saveAll: %v: %w", key, err)
		}
		if err := store.Save(ctx, key, data); err != nil {
			return fmt.Errorf("saveAll: %w", err)
		}
	}
	return nil
}
