// Package service contains the application use cases of the lead pipeline.
//
// LeadService is the single entry point used by the HTTP adapter: it
// creates and reads leads, keeps the read-through cache in front of the
// record store, and turns enrichment requests into queued tasks guarded by
// the per-lead pending marker.
//
// Error handling principles:
//  1. Expected conditions are reported with sentinel errors (ErrInvalidLead,
//     ErrLeadConflict, ErrLeadNotFound) that callers check with errors.Is.
//  2. Unexpected failures are wrapped in *LeadServiceError with the failing
//     operation name.
//  3. The API layer maps these errors to HTTP status codes.
package service
