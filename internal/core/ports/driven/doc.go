// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor / ExtractorRegistry: Turn uploaded bytes into page text
//   - Segmenter: Split page text into classified clauses
//   - EmbeddingService: Text to vector, deterministic per model id
//   - ClauseStore: Atomic per-document persistence of clauses and vectors
//   - DocumentStore: Read side of the document registry
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Summaries, negotiation drafts and Q&A. Scoring never needs it.
//   - ReportStore: Without it reports are computed but not kept.
//   - EmbeddingCache: Avoids re-embedding identical text.
//   - MetricsRecorder: Pipeline counters and latencies.
//   - PromptStore: Without it built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
