// Package docstore provides generic JSON document collections on Redis:
// create/find/update-by-id with optimistic find-then-save semantics.
// There are no transactions across collections; multi-document workflows
// must sequence their writes and treat partial failure explicitly.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Collection names used by the portal.
const (
	CollectionItems         = "items"
	CollectionEventRequests = "event_requests"
	CollectionEvents        = "events"
	CollectionFeedback      = "feedback"
)

var (
	// ErrNotFound is returned when a document id does not resolve.
	ErrNotFound = errors.New("document not found")
	// ErrContention is returned when an optimistic update keeps losing
	// against concurrent writers.
	ErrContention = errors.New("update contention")
)

const maxTxRetries = 5

// Collection stores documents of type T as JSON values at "<name>:<id>",
// with a set at "<name>" indexing the ids.
type Collection[T any] struct {
	rdb  *redis.Client
	name string
}

// NewCollection creates a collection handle. It does not touch Redis.
func NewCollection[T any](rdb *redis.Client, name string) *Collection[T] {
	return &Collection[T]{rdb: rdb, name: name}
}

func (c *Collection[T]) key(id string) string {
	return c.name + ":" + id
}

// Create stores a new document under id and indexes it.
func (c *Collection[T]) Create(ctx context.Context, id string, doc *T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	pipe := c.rdb.Pipeline()
	pipe.Set(ctx, c.key(id), data, 0)
	pipe.SAdd(ctx, c.name, id)
	_, err = pipe.Exec(ctx)
	return err
}

// GetByID retrieves a document by id.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	data, err := c.rdb.Get(ctx, c.key(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var doc T
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &doc, nil
}

// List returns all documents in the collection. Ordering is up to the caller.
func (c *Collection[T]) List(ctx context.Context) ([]*T, error) {
	ids, err := c.rdb.SMembers(ctx, c.name).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*T{}, nil
	}
	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, c.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	docs := make([]*T, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}
		var doc T
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// Update applies mutate to the current document and saves the result as one
// optimistic read-modify-write: the key is WATCHed, so if another writer
// commits first the transaction is retried against the fresh document.
// Errors returned by mutate abort the update and propagate unchanged, which
// is how state-machine guards reject a transition after a lost race.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(*T) error) (*T, error) {
	key := c.key(id)
	var updated *T

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var doc T
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return fmt.Errorf("unmarshal document: %w", err)
		}
		if err := mutate(&doc); err != nil {
			return err
		}
		raw, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		if err == nil {
			updated = &doc
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrContention
}

// Delete removes a document and its index entry.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if _, err := c.GetByID(ctx, id); err != nil {
		return err
	}
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, c.key(id))
	pipe.SRem(ctx, c.name, id)
	_, err := pipe.Exec(ctx)
	return err
}
