package tokenstore

// TokenKey is the fixed key the bearer token is persisted under.
const TokenKey = "authToken"

// Store is client-local key-value storage. Get returns errors.ErrNoToken
// (internal/errors) when the key has never been set or was deleted.
type Store interface {
	// Get returns the value stored under key
	Get(key string) (string, error)

	// Set creates or replaces the value stored under key
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases any underlying resources
	Close() error
}
