package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a token resolves to no session,
// including sessions that have expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is the authentication marker held by the session store.
type Session struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists sessions keyed by an opaque token. Lifecycle
// (expiry, eviction) belongs to the store, not to callers.
type SessionStore interface {
	Create(ctx context.Context, session Session) (token string, err error)
	Get(ctx context.Context, token string) (*Session, error)
	Destroy(ctx context.Context, token string) error
	Close() error
}

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps sessions in Redis with a TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore connects to Redis and verifies the connection.
func NewRedisSessionStore(redisURL string, ttl time.Duration) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pool
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Redis connection established")

	return &RedisSessionStore{client: client, ttl: ttl}, nil
}

// Create stores a new session and returns its opaque token.
func (s *RedisSessionStore) Create(ctx context.Context, session Session) (string, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Get resolves a token to its session, or ErrSessionNotFound.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Destroy removes a session. Destroying an unknown token is a no-op.
func (s *RedisSessionStore) Destroy(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}

// Close closes the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// MemorySessionStore keeps sessions in process memory. Used when
// REDIS_URL is unset and by tests; sessions do not survive restarts.
type MemorySessionStore struct {
	sessions *cache.Cache
}

// NewMemorySessionStore creates an in-memory session store with the
// given TTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: cache.New(ttl, 10*time.Minute),
	}
}

// Create stores a new session and returns its opaque token.
func (s *MemorySessionStore) Create(_ context.Context, session Session) (string, error) {
	token := uuid.NewString()
	s.sessions.SetDefault(token, session)
	return token, nil
}

// Get resolves a token to its session, or ErrSessionNotFound.
func (s *MemorySessionStore) Get(_ context.Context, token string) (*Session, error) {
	value, found := s.sessions.Get(token)
	if !found {
		return nil, ErrSessionNotFound
	}
	session, ok := value.(Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Destroy removes a session. Destroying an unknown token is a no-op.
func (s *MemorySessionStore) Destroy(_ context.Context, token string) error {
	s.sessions.Delete(token)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemorySessionStore) Close() error {
	return nil
}
