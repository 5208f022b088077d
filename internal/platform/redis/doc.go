// Package redis provides the Redis-backed pieces of the enrichment
// pipeline: the short-lived lead snapshot cache and the per-lead pending
// marker that keeps duplicate enrichment jobs out of the queue.
package redis
