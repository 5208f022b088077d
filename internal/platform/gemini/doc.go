// Package gemini implements generation.Summarizer on top of Google's Gemini
// API (google.golang.org/genai).
//
// A Summarizer renders a fixed prompt from the lead's stored fields, makes
// a single GenerateContent call under a per-request timeout, and decodes the
// reply with generation.DecodeEnrichment. It never retries; every failure is
// reported as a generation.ErrAIService so the task queue can decide whether
// to try again.
package gemini
