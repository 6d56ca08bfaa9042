// Package lock serializes identify calls that share an email or phone
// number, in-process or across instances through Redis.
package lock

import (
	"context"
	"hash/fnv"
	"slices"
)

// numShards bounds memory; unrelated keys may share a shard.
const numShards = 256

// Local is an in-process key locker built from sharded channel semaphores.
// Shards are taken in ascending order so two callers can never hold one
// shard each while waiting for the other's.
type Local struct {
	shards [numShards]chan struct{}
}

// NewLocal creates a Local locker.
func NewLocal() *Local {
	l := &Local{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

// Lock blocks until every shard covering keys is held or ctx is done.
func (l *Local) Lock(ctx context.Context, keys []string) (func(), error) {
	shards := shardsFor(keys)
	held := make([]int, 0, len(shards))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-l.shards[held[i]]
		}
	}
	for _, shard := range shards {
		select {
		case l.shards[shard] <- struct{}{}:
			held = append(held, shard)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}
	return release, nil
}

func shardsFor(keys []string) []int {
	shards := make([]int, 0, len(keys))
	for _, key := range keys {
		shards = append(shards, shardOf(key))
	}
	slices.Sort(shards)
	return slices.Compact(shards)
}

func shardOf(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

// sortedKeys returns keys sorted and without duplicates.
func sortedKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
