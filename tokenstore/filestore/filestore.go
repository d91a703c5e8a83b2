package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-testboard-client/internal/errors"
	"github.com/jrsteele09/go-testboard-client/tokenstore"
	"github.com/rs/zerolog/log"
)

var _ tokenstore.Store = (*FileStore)(nil)

// FileStore persists values as a JSON object in a single file readable only
// by the current user. Writes go through a temp file and rename.
type FileStore struct {
	path string
	lock sync.Mutex
}

func New(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("[filestore.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[filestore.New] create dirs: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (fs *FileStore) Get(key string) (string, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, err := fs.read()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", apperrors.ErrNoToken
	}
	return value, nil
}

func (fs *FileStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, _, err := fs.readForWrite()
	if err != nil {
		return err
	}
	values[key] = value
	return fs.write(values)
}

func (fs *FileStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	values, discarded, err := fs.readForWrite()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok && !discarded {
		return nil
	}
	delete(values, key)
	return fs.write(values)
}

func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileStore] read %s: %w", fs.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, &decodeError{path: fs.path, err: err}
	}
	return values, nil
}

// readForWrite is read for Set and Delete. An undecodable file is treated as
// empty so that it gets overwritten instead of blocking every write.
func (fs *FileStore) readForWrite() (values map[string]string, discarded bool, err error) {
	values, err = fs.read()
	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		log.Warn().Err(err).Str("path", fs.path).Msg("Discarding unreadable token file")
		return make(map[string]string), true, nil
	}
	return values, false, err
}

type decodeError struct {
	path string
	err  error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("[FileStore] decode %s: %v", e.path, e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}

func (fs *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileStore] encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".session-*")
	if err != nil {
		return fmt.Errorf("[FileStore] create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore] chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore] write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore] close: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("[FileStore] rename: %w", err)
	}
	return nil
}
