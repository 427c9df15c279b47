// Package x12 turns raw X12 interchange text into typed segment records.
//
// The package covers the lowest layers of 997 ingestion:
//
//   - Delimiters: the four separator characters of one interchange, detected from
//     fixed offsets of the ISA header or supplied by configuration.
//   - Tokenizer: splits content into segment strings on the segment terminator.
//   - Elements: positional element access with required/optional/integer accessors.
//   - Parser: dispatches a segment on its tag to one of twelve fixed record shapes
//     (ISA, GS, ST, AK1, AK2, AK3, AK4, AK5, AK9, SE, GE, IEA) or Unknown.
//
// Data flows strictly downward: bytes -> Delimiters -> segment strings -> Segment.
// Nothing in this package performs I/O or keeps state between documents; a Parser
// is bound to the Delimiters of exactly one interchange.
//
// All failures are reported as *ParseError values carrying an ErrorCode, so callers
// can branch with HasCode without string matching.
package x12
