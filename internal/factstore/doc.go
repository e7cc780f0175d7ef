// Package factstore defines the data-access contract for the fact tables:
// ad spend, order events, manual entries, and spend overrides. It is the
// single source of truth everything else reads through.
//
// The interfaces here are implemented by repository/postgres for production
// and by in-memory fakes in tests. Callers must treat zero rows and absent
// sources as distinct from zero values; readers return what is committed
// and nothing else.
package factstore
