// Package storage is the key-value persistence boundary. Every logical
// collection (model configs, user templates, history) is one JSON document
// under a fixed key; backends only decide where that document lives.
package storage

import (
	"context"
	"errors"
)

// Fixed document keys.
const (
	KeyModels    = "promptsmith:models"
	KeyTemplates = "promptsmith:templates"
	KeyHistory   = "promptsmith:history"
)

// ErrQuotaExceeded is returned by SetItem when a write would push the store
// past its configured byte quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Provider is the minimal key-value contract. A read miss is ("", false, nil),
// never an error.
type Provider interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Closer is implemented by backends holding external resources.
type Closer interface {
	Close() error
}

// Close releases p if it holds resources.
func Close(p Provider) error {
	if c, ok := p.(Closer); ok {
		return c.Close()
	}
	return nil
}

// quota tracks per-key sizes for the backends that enforce a byte limit.
// Callers hold their own lock.
type quota struct {
	limit int64
	sizes map[string]int64
	total int64
}

func newQuota(limit int64) *quota {
	return &quota{limit: limit, sizes: make(map[string]int64)}
}

func (q *quota) allows(key string, size int64) bool {
	if q.limit <= 0 {
		return true
	}
	return q.total-q.sizes[key]+size <= q.limit
}

func (q *quota) set(key string, size int64) {
	q.total += size - q.sizes[key]
	q.sizes[key] = size
}

func (q *quota) remove(key string) {
	q.total -= q.sizes[key]
	delete(q.sizes, key)
}

func (q *quota) reset() {
	q.total = 0
	q.sizes = make(map[string]int64)
}
