// Package ingest imports leads from an external source on a schedule.
//
// A Source returns a batch of candidate contacts. The Syncer deduplicates
// them by normalized email against the record store and creates the new
// ones with source "external". The Scheduler runs the Syncer on a cron
// schedule and never lets two runs overlap.
package ingest
