package database

import (
	"sync"

	"gorm.io/gorm"
)

// DB is the shared, reloadable database handle. Handlers call Get once per
// request and use that snapshot for the whole request; Reload swaps the
// underlying pool for new requests without touching in-flight ones.
//
// Reloading is an infrequent administrative action (e.g. after restoring the
// database from a backup), exposed through the admin reload endpoint.
type DB struct {
	mu     sync.RWMutex
	handle *gorm.DB
	dsn    string
}

// New wraps an already connected gorm handle.
func New(handle *gorm.DB, dsn string) *DB {
	return &DB{handle: handle, dsn: dsn}
}

// Get returns the current gorm handle. The returned value stays valid for the
// caller even if Reload runs concurrently — the old pool is simply no longer
// handed out.
func (d *DB) Get() *gorm.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handle
}

// Reload connects a fresh pool against the configured DSN and swaps it in.
// On connection failure the old handle stays in place.
func (d *DB) Reload() error {
	fresh, err := Connect(d.dsn)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.handle = fresh
	d.mu.Unlock()

	// The old pool is not closed here: requests that snapshotted it via Get
	// may still be running. It drains once its idle timeouts expire.
	return nil
}
