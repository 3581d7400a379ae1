// Package html provides an Extractor for HTML contracts. It walks the parsed
// document with goquery, keeps block structure as blank-line separated
// paragraphs and starts a new page at CSS page breaks.
package html
