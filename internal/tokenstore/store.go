// Package tokenstore provides durable key/value persistence for the
// access and refresh tokens. The store is safe to use before any other
// component initializes and degrades to in-memory-only operation when
// the underlying medium is unavailable.
package tokenstore

// Durable keys
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Store is the durable token persistence contract. Put and Remove
// report medium failures; Get treats an unreadable medium as absent.
type Store interface {
	// Put writes a value under key. A non-nil error means the durable
	// medium rejected the write; the value is still visible to Get for
	// the remainder of the process.
	Put(key, value string) error

	// Get retrieves a value. The second return is false when absent.
	Get(key string) (string, bool)

	// Remove deletes a value. Removing an absent key is not an error.
	Remove(key string) error
}
