// Package utils provides common utility functions for catalog-sync.
// It holds the tolerant type conversions used when decoding catalog snapshots,
// where remote servers disagree on whether numbers and flags arrive as JSON
// numbers, strings or booleans.
package utils
