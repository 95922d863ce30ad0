package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

// Locker gives one caller at a time exclusive access to a session id.
// The returned unlock func is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

/* ----------------------------- In-process ------------------------------ */

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex serializes callers per key inside one process. Entries are
// reference counted and dropped once no caller holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

var _ Locker = (*KeyedMutex)(nil)

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, sessionID string) (func(), error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	k.mu.Lock()
	e, ok := k.entries[sessionID]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.entries[sessionID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(sessionID, e)
		return nil, contractx.Transient("wait for session lock", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(sessionID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(sessionID string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, sessionID)
	}
}

// held reports how many keys currently have holders or waiters.
func (k *KeyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

/* -------------------------------- Redis -------------------------------- */

const (
	defaultLockPrefix = "travel:lock:"
	defaultLockTTL    = 90 * time.Second
	defaultLockPoll   = 25 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var ErrLockLost = errors.New("session lock expired before release")

// RedisLocker serializes callers per session id across processes using
// SET NX PX with a random token and a compare-and-delete release.
// The TTL must exceed the longest turn.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(client redis.UniversalClient, prefix string, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultLockPrefix
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, poll: defaultLockPoll}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	key := l.prefix + sessionID
	token := uuid.NewString()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, contractx.Transient("acquire session lock", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, contractx.Transient("wait for session lock", ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			n, err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Int()
			if err != nil {
				log.Error().Err(err).Str("session_id", sessionID).Msg("release session lock")
				return
			}
			if n == 0 {
				log.Warn().Err(fmt.Errorf("%w: key=%s", ErrLockLost, key)).Str("session_id", sessionID).Msg("release session lock")
			}
		})
	}, nil
}
