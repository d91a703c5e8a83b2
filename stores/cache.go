package stores

import (
	"context"
	"net/url"
	"slices"
	"sync"

	"github.com/jrsteele09/go-testboard-client/apiclient"
	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// API is the subset of *apiclient.Client the stores call.
type API interface {
	Get(ctx context.Context, path string, query url.Values) (apiclient.Result, error)
	Post(ctx context.Context, path string, body any) (apiclient.Result, error)
	Put(ctx context.Context, path string, body any) (apiclient.Result, error)
	Delete(ctx context.Context, path string) (apiclient.Result, error)
	PostMultipart(ctx context.Context, path string, form *apiclient.Multipart) (apiclient.Result, error)
}

var _ API = (*apiclient.Client)(nil)

// State is a copy of a store's cache at one point in time.
type State[T any] struct {
	Items     []T
	IsLoading bool
	Error     string
}

type keyed interface {
	key() ID
}

// cache is the shared items/loading/error container behind every store.
// Writers go through begin, then a merge, then settle.
type cache[T keyed] struct {
	mu      sync.RWMutex
	items   []T
	loading bool
	err     string
}

func (c *cache[T]) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
	c.err = ""
}

func (c *cache[T]) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
}

// fail records the message and leaves items as they were.
func (c *cache[T]) fail(store string, err error, fallback string) {
	msg := apperrors.Message(err, fallback)
	log.Warn().Err(err).Str("store", store).Msg(fallback)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = msg
}

func (c *cache[T]) replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

func (c *cache[T]) append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

func (c *cache[T]) prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T{item}, c.items...)
}

// splice replaces the item with the given id in place. Unknown ids leave
// the cache unchanged.
func (c *cache[T]) splice(id ID, item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := slices.IndexFunc(c.items, func(v T) bool { return v.key() == id }); i >= 0 {
		c.items[i] = item
	}
}

func (c *cache[T]) remove(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.DeleteFunc(slices.Clone(c.items), func(v T) bool { return v.key() == id })
}

func (c *cache[T]) find(id ID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.items {
		if v.key() == id {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (c *cache[T]) snapshot() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State[T]{
		Items:     slices.Clone(c.items),
		IsLoading: c.loading,
		Error:     c.err,
	}
}
