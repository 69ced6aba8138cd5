package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned by Store.Get when no value exists for the key.
	ErrNotFound = errors.New("session record not found")
	// ErrCorrupt is returned when a persisted record cannot be decoded or authenticated.
	ErrCorrupt = errors.New("session record corrupt")
	// ErrStoreUnavailable wraps backend I/O failures.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrInvalidSession is returned by Encode for a partially populated Session.
	ErrInvalidSession = errors.New("invalid session")
)

// DefaultKey is the logical key the Manager persists its record under.
const DefaultKey = "session"

// Store is the durable key-value surface the Manager persists to.
//
// Get returns ErrNotFound for a missing key. Delete of a missing key is not an
// error. A ttl of zero means no backend-side expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by OpenStore.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// StoreOptions selects and configures a Store backend.
type StoreOptions struct {
	Backend string

	// Dir is the directory for the file backend.
	Dir string
	// Path is the database file for the sqlite backend.
	Path string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Passphrase, when set, wraps the backend in a SealedStore.
	Passphrase string

	Logger *zap.Logger
}

// OpenStore builds the backend described by opts. The returned close function
// releases backend resources and is never nil.
func OpenStore(opts StoreOptions) (Store, func() error, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store   Store
		closeFn = func() error { return nil }
	)

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		store = NewMemoryStore()
	case BackendFile:
		fs, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		store = fs
	case BackendRedis:
		rs := NewRedisStoreFromAddr(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
		store = rs
		closeFn = rs.Close
	case BackendSQLite:
		ss, err := OpenSQLiteStore(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		store = ss
		closeFn = ss.Close
	default:
		return nil, nil, fmt.Errorf("unknown session store backend %q", opts.Backend)
	}

	if opts.Passphrase != "" {
		store = NewSealedStore(store, opts.Passphrase)
	}

	logger.Debug("session store opened",
		zap.String("backend", opts.Backend),
		zap.Bool("sealed", opts.Passphrase != ""),
	)
	return store, closeFn, nil
}
