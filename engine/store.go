package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
)

// SessionsBucket is the KV bucket name for onboarding sessions.
const SessionsBucket = "ONBOARDING"

// Store is the session persistence contract the Controller depends on.
// Writes are write-through: a session is durable before a response exists.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	List(ctx context.Context) ([]*Session, error)
}

// SessionStore persists sessions in a JetStream KV bucket, one key per user.
type SessionStore struct {
	nc     *natsclient.Client
	bucket jetstream.KeyValue
}

// NewSessionStore creates the store, provisioning the bucket if needed.
func NewSessionStore(nc *natsclient.Client) (*SessionStore, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("get jetstream: %w", err)
	}

	ctx := context.Background()

	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      SessionsBucket,
		Description: "Per-user onboarding sessions",
		TTL:         180 * 24 * time.Hour, // 180 days
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}

	return &SessionStore{nc: nc, bucket: bucket}, nil
}

// Get retrieves a session by user ID. Returns ErrSessionNotFound when the
// user has never interacted with the engine.
func (s *SessionStore) Get(ctx context.Context, userID string) (*Session, error) {
	entry, err := s.bucket.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(entry.Value(), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &sess, nil
}

// Put saves a session, stamping UpdatedAt.
func (s *SessionStore) Put(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if _, err := s.bucket.Put(ctx, sess.UserID, data); err != nil {
		return fmt.Errorf("put session: %w", err)
	}

	return nil
}

// List retrieves all sessions. Individual malformed entries are skipped.
func (s *SessionStore) List(ctx context.Context) ([]*Session, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		// Empty bucket returns ErrNoKeysFound - this is not an error
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("list keys: %w", err)
	}

	var sessions []*Session
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry, err := s.bucket.Get(ctx, key)
		if err != nil {
			continue
		}

		var sess Session
		if err := json.Unmarshal(entry.Value(), &sess); err != nil {
			continue
		}

		sessions = append(sessions, &sess)
	}

	return sessions, nil
}

// Delete removes a session from the store.
func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.bucket.Delete(ctx, userID)
}
