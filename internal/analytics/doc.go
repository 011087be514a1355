// Package analytics holds the aggregation engine: pure functions over
// snapshots of transactions and budget ceilings. Nothing in this package
// reads storage or the wall clock; callers pass the period, the time
// zone and "now" explicitly.
package analytics
