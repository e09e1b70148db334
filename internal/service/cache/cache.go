package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL. The signal
// handler uses it to serve hot /market-signal polls without recomputing the
// snapshot on every request.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
