// Package extractors turns uploaded contract files into ordered page text.
// Each extractor knows one family of formats; the Registry detects the MIME
// type of an upload and dispatches to the highest priority extractor.
//
// Extractors are registered with the Registry at startup.
package extractors
