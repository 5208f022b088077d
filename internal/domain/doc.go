// Package domain contains the core business entities of the lead service:
// the Lead record, its acquisition source, and the AI-generated enrichment
// attached to it. It is independent of any storage or delivery mechanism.
package domain
