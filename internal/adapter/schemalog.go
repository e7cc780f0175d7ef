package adapter

import (
	"sync"

	"github.com/vironax/adinsights/internal/pkg/logger"
)

// SchemaLog deduplicates schema-error logging to once per
// (store, adapter, day): one malformed upstream day should produce one
// warning, not one per row.
type SchemaLog struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSchemaLog creates an empty dedupe log.
func NewSchemaLog() *SchemaLog {
	return &SchemaLog{seen: make(map[string]struct{})}
}

// Warn logs the schema problem unless the (store, source, date) cell has
// already been reported. Returns true when the entry was logged.
func (l *SchemaLog) Warn(store, source, date string, err error) bool {
	key := store + "|" + source + "|" + date
	l.mu.Lock()
	_, dup := l.seen[key]
	if !dup {
		l.seen[key] = struct{}{}
	}
	l.mu.Unlock()

	if dup {
		return false
	}
	logger.Warn("schema error, skipping row",
		"store", store, "source", source, "date", date, "err", err.Error())
	return true
}
