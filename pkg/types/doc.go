// Package types defines the Book entity, the BookStore contract, backend
// configuration, and the standard errors shared by every BookMood storage
// backend.
//
// A BookStore persists the whole collection as one unit. Callers hold the
// working set in memory, call Load once on startup, and call Save with the
// full, ordered slice whenever it changes.
package types
