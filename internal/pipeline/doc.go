// Package pipeline implements the markup-safe HTML rewriting pipeline.
//
// The package works on raw document text rather than a parsed tree:
//   - Paired tag spans are located with permissive patterns (FindPairedTags)
//   - Overlapping spans are reduced first-wins (MergeSpans)
//   - WordMark appends a marker glyph to isolated six-letter words outside
//     excluded elements such as script and iframe
//   - LinkRewrite points anchor href values at the proxy instead of the origin
//   - Pipeline threads a document through an ordered list of rules
//
// Malformed markup is tolerated, never reported: an element without a closing
// tag is simply not protected or targeted. Every rule computes its spans from
// its own input, so rules can be composed in any order.
//
// Positions are byte offsets into the UTF-8 document.
package pipeline
