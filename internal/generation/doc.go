// Package generation defines the boundary between the enrichment worker and
// the external AI/LLM service. It holds the Summarizer interface, the
// errors every implementation reports through, and the strict decoder that
// turns raw model output into a domain.Enrichment.
//
// Concrete clients (see internal/platform/gemini) live outside this package
// so the worker depends only on the interface.
package generation
