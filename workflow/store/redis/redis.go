// Package redis provides a Redis-backed workflow.StepStore, externalising
// step memoization so a workflow can be resumed from a different process
// than the one that suspended it.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists step values as JSON in one Redis hash per workflow run,
// named "agentflow:steps:{runID}".
type Store struct {
	client *redis.Client
	hash   string
	ctx    context.Context
}

// New returns a StepStore backed by client, scoping all keys to runID so
// multiple workflow runs can share one Redis instance without collision.
func New(ctx context.Context, client *redis.Client, runID string) *Store {
	return &Store{client: client, hash: fmt.Sprintf("agentflow:steps:%s", runID), ctx: ctx}
}

// NewRunID returns a globally unique run identifier suitable for keying a
// Store, prefixed with a normalized label (typically an agent or epic name)
// to improve observability in logs, metrics, and tracing without
// sacrificing uniqueness.
func NewRunID(label string) string {
	prefix := strings.ReplaceAll(label, ".", "-")
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// Get satisfies workflow.StepStore.
func (s *Store) Get(key string) (any, bool) {
	raw, err := s.client.HGet(s.ctx, s.hash, key).Result()
	if err != nil {
		return nil, false
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false
	}
	return value, true
}

// Set satisfies workflow.StepStore. Marshaling failures are swallowed the
// same way a dropped network write would be: the step simply re-runs on the
// next attempt, which is safe since only idempotent step bodies are
// memoized by contract.
func (s *Store) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.client.HSet(s.ctx, s.hash, key, raw)
}

// Snapshot reads every recorded key/value pair for this run, mirroring
// workflow.MemStore.Snapshot so the same recording pattern works against
// either backend.
func (s *Store) Snapshot() (map[string]any, error) {
	raw, err := s.client.HGetAll(s.ctx, s.hash).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		var value any
		if err := json.Unmarshal([]byte(v), &value); err != nil {
			return nil, fmt.Errorf("redis store: decode %q: %w", k, err)
		}
		out[k] = value
	}
	return out, nil
}

// Clear removes every step recorded for this run.
func (s *Store) Clear() error {
	return s.client.Del(s.ctx, s.hash).Err()
}
