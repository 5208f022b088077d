// Package task manages background job queuing, processing, and lifecycle.
// It runs lead enrichment outside the request path with a bounded retry
// budget, persists every job so unfinished work is recovered after a
// restart, and hands callers a Handle they can wait on.
package task
