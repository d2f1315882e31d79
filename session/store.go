package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable wraps every Redis transport failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrSessionNotFound is returned when a session does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")
	// errSessionExpired is returned by Save for a session past its ExpiresAt.
	errSessionExpired = errors.New("session already expired")
)

// Sliding renewal never shortens a key below this.
const minSlidingTTL = time.Second

// unlinkSession removes KEYS[1] and drops ARGV[1] from the index set KEYS[2]
// atomically. It returns 1 when the session key existed.
var unlinkSession = redis.NewScript(`
redis.call("SREM", KEYS[2], ARGV[1])
return redis.call("DEL", KEYS[1])
`)

// Config controls key namespace and expiry.
//
// TTL is the idle lifetime of a session key. Lifetime caps the total age of a
// session regardless of sliding renewal; zero means TTL.
type Config struct {
	Prefix   string
	TTL      time.Duration
	Lifetime time.Duration
	Sliding  bool
}

// Store is a Redis-backed session store. Each session lives under
// <prefix>:<sid>; the set <prefix>:u:<uid> indexes the sessions of a user.
type Store struct {
	rdb      redis.UniversalClient
	prefix   string
	idle     time.Duration
	lifetime time.Duration
	sliding  bool
	now      func() time.Time
}

// NewStore creates a Store backed by the given Redis client.
func NewStore(client redis.UniversalClient, cfg Config) *Store {
	s := &Store{
		rdb:      client,
		prefix:   cfg.Prefix,
		idle:     cfg.TTL,
		lifetime: cfg.Lifetime,
		sliding:  cfg.Sliding,
		now:      time.Now,
	}
	if s.prefix == "" {
		s.prefix = "gas"
	}
	if s.idle <= 0 {
		s.idle = 24 * time.Hour
	}
	if s.lifetime <= 0 {
		s.lifetime = s.idle
	}
	return s
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}

func (s *Store) sessionKey(sid string) string { return s.prefix + ":" + sid }

func (s *Store) indexKey(uid int64) string {
	return s.prefix + ":u:" + strconv.FormatInt(uid, 10)
}

// idleTTL is the key TTL for a session with remaining lifetime left.
func (s *Store) idleTTL(left time.Duration) time.Duration {
	return min(s.idle, left)
}

// Save persists sess. CreatedAt and ExpiresAt are filled in when zero. The
// session key and its index entry are written in one transaction.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	now := s.now()
	if sess.CreatedAt == 0 {
		sess.CreatedAt = now.Unix()
	}
	if sess.ExpiresAt == 0 {
		sess.ExpiresAt = time.Unix(sess.CreatedAt, 0).Add(s.lifetime).Unix()
	}
	sess.SchemaVersion = CurrentSchemaVersion

	ttl := s.idleTTL(time.Unix(sess.ExpiresAt, 0).Sub(now))
	if ttl <= 0 {
		return errSessionExpired
	}
	blob, err := Encode(sess)
	if err != nil {
		return err
	}

	index := s.indexKey(sess.UserID)
	if _, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.sessionKey(sess.SessionID), blob, ttl)
		p.SAdd(ctx, index, sess.SessionID)
		p.Expire(ctx, index, s.lifetime)
		return nil
	}); err != nil {
		return unavailable(err)
	}
	return nil
}

// load reads and decodes the session under sid.
func (s *Store) load(ctx context.Context, sid string) (*Session, error) {
	blob, err := s.rdb.Get(ctx, s.sessionKey(sid)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, unavailable(err)
	}
	sess, err := Decode(blob)
	if err != nil {
		return nil, err
	}
	sess.SessionID = sid
	return sess, nil
}

// Get returns the session stored under sessionID. Expired sessions are
// removed and reported as ErrSessionNotFound. Blobs in an older schema are
// rewritten in place. With sliding enabled the key's idle TTL is renewed,
// never past the session's lifetime.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	left := time.Unix(sess.ExpiresAt, 0).Sub(s.now())
	if left <= 0 {
		if err := s.unlink(ctx, sess.UserID, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}

	outdated := sess.SchemaVersion != CurrentSchemaVersion
	if !outdated && !s.sliding {
		return sess, nil
	}

	var blob []byte
	if outdated {
		sess.SchemaVersion = CurrentSchemaVersion
		if blob, err = Encode(sess); err != nil {
			return nil, err
		}
	}
	key := s.sessionKey(sessionID)
	if _, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if outdated {
			p.SetArgs(ctx, key, blob, redis.SetArgs{KeepTTL: true, Mode: "XX"})
		}
		if s.sliding {
			p.Expire(ctx, key, max(s.idleTTL(left), minSlidingTTL))
		}
		return nil
	}); err != nil && !errors.Is(err, redis.Nil) {
		return nil, unavailable(err)
	}
	return sess, nil
}

// Delete removes a session and its index entry. Deleting a missing session
// is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	sess, err := s.load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.unlink(ctx, sess.UserID, sessionID)
}

// DeleteAllForUser removes every session of userID. A session created
// concurrently with the call may survive it.
func (s *Store) DeleteAllForUser(ctx context.Context, userID int64) error {
	ids, err := s.ActiveSessionIDs(ctx, userID)
	if err != nil {
		return err
	}
	keys := []string{s.indexKey(userID)}
	for _, sid := range ids {
		keys = append(keys, s.sessionKey(sid))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// ActiveSessionIDs returns the indexed session IDs of userID. The index may
// briefly list sessions whose keys have already expired.
func (s *Store) ActiveSessionIDs(ctx context.Context, userID int64) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, s.indexKey(userID)).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	return ids, nil
}

// Ping checks Redis availability and reports the round-trip latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := s.rdb.Ping(ctx).Err()
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, unavailable(err)
	}
	return elapsed, nil
}

func (s *Store) unlink(ctx context.Context, userID int64, sid string) error {
	keys := []string{s.sessionKey(sid), s.indexKey(userID)}
	if err := unlinkSession.Run(ctx, s.rdb, keys, sid).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}
