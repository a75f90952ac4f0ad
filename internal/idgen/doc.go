// Package idgen produces identifiers for queue entries and execution units.
// Entry identifiers are opaque strings; unit identifiers are small positive
// integers so that 0 can keep meaning "never started".
package idgen
