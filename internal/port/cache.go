package port

import "encoding/json"

// RequestCache persists completed fetch result sets keyed by (resource path,
// expansion flag). Entries are write-once: a hit always short-circuits the
// network path regardless of staleness, and Put on an existing key is a
// no-op.
type RequestCache interface {
	Get(path string, expand bool) ([]json.RawMessage, bool)
	Put(path string, expand bool, records []json.RawMessage) error
}
