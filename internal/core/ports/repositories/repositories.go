package repositories

// RepositoryProvider holds the persistence dependencies needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Store LedgerStore
	// Close releases the underlying connections. It may be nil.
	Close func()
}
