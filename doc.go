// Package tmproxy rewrites HTML pages served through a proxy: every isolated
// six-letter word gets a marker glyph, and anchor links to the origin are
// pointed back at the proxy.
//
// # Quick Start
//
// Create a rewriter once and reuse it for every document:
//
//	rw, err := tmproxy.NewRewriter(
//	    tmproxy.WithOrigin("https://habr.com"),
//	    tmproxy.WithListenAddr("127.0.0.1", 8080),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := rw.Process(ctx, `<p>Python <a href="https://habr.com/ru/">Хабр</a></p>`)
//	// out: <p>Python™ <a href="http://127.0.0.1:8080/ru/">Хабр</a></p>
//
// # Rewrite Rules
//
// Rules run in this order, each on the output of the previous one:
//
//  1. Word mark: a run of exactly six letters, not glued to other word
//     characters and not inside a tag definition, gets the marker appended.
//     Content of excluded elements (script and iframe by default) is copied
//     through untouched.
//  2. Link rewrite: inside each <a>...</a> element, the first href whose
//     value starts with the origin has the origin replaced by
//     http://host:port of the proxy.
//
// Both rules work on raw text with pattern matching, not on a parsed DOM,
// so malformed markup never causes an error. A second pass over rewritten
// output changes nothing.
//
// # Configuration
//
//	rw, err := tmproxy.NewRewriter(
//	    tmproxy.WithMarker("™"),
//	    tmproxy.WithExcludedTags("script", "iframe", "style"),
//	    tmproxy.WithCaseInsensitiveTags(),
//	    tmproxy.WithoutLinkRewrite(),
//	)
//
// Link rewriting needs a listen port; without one NewRewriter returns
// ErrMissingListenPort.
//
// # Concurrency
//
// A Rewriter is immutable and safe for concurrent use. Servers bound the
// number of simultaneous rewrites with ResolveWorkers.
package tmproxy
