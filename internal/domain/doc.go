// Package domain defines the core entities of the analytics service:
// stores, normalized ad-spend and order facts, manual entries, dimension
// tuples, and the date-window type shared by every query path.
//
// Types here carry no behavior beyond small pure helpers. Persistence
// lives in repository/postgres; business rules live in the reconcile,
// aggregate, and budget packages.
package domain
