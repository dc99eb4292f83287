package types

// Store is the key/value space an executed action may read and write. Writes
// become durable only if the whole execution succeeds.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}
