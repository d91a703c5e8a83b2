package memstore

import (
	"sync"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/tokenstore"
)

var _ tokenstore.Store = (*MemStore)(nil)

// MemStore keeps values in process memory. Used by tests and by the CLI when
// persistence is disabled.
type MemStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{
		values: make(map[string]string),
	}
}

func (ms *MemStore) Get(key string) (string, error) {
	ms.lock.RLock()
	defer ms.lock.RUnlock()

	value, ok := ms.values[key]
	if !ok {
		return "", apperrors.ErrNoToken
	}
	return value, nil
}

func (ms *MemStore) Set(key, value string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	ms.values[key] = value
	return nil
}

func (ms *MemStore) Delete(key string) error {
	ms.lock.Lock()
	defer ms.lock.Unlock()

	delete(ms.values, key)
	return nil
}

func (ms *MemStore) Close() error {
	return nil
}
