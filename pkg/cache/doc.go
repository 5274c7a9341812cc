// Package cache provides a generic, thread-safe LRU cache. The pipeline uses
// it to memoize parsed companion files that several conversion jobs in one
// batch read.
package cache
