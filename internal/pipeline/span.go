package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// ErrInvalidTagName is returned when a tag name cannot identify an element.
var ErrInvalidTagName = errors.New("invalid tag name")

// tagNamePattern accepts HTML element names, including custom elements.
var tagNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// Span is a half-open byte range [Start, End) over a document.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Text returns the part of doc covered by the span.
func (s Span) Text(doc string) string {
	return doc[s.Start:s.End]
}

// TagOptions controls how tag tokens are recognized.
type TagOptions struct {
	CaseInsensitive bool // match <SCRIPT> as well as <script>
}

// TagMatcher finds paired-tag spans for a single element name.
// It is immutable and safe for concurrent use.
type TagMatcher struct {
	tag     string
	pattern *regexp.Regexp
}

// NewTagMatcher compiles a matcher for tag.
// Returns ErrInvalidTagName if tag is not a valid element name.
func NewTagMatcher(tag string, opts TagOptions) (*TagMatcher, error) {
	if !tagNamePattern.MatchString(tag) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTagName, tag)
	}
	return &TagMatcher{tag: tag, pattern: pairedTagPattern(tag, opts)}, nil
}

// Tag returns the element name the matcher was built for.
func (m *TagMatcher) Tag() string {
	return m.tag
}

// FindSpans returns the spans of every element in doc, opening tag through
// closing tag. An opening tag pairs with the nearest following closing tag;
// nesting depth is not tracked and an unterminated element yields no span.
// Spans from a single call never overlap and are ordered by Start.
func (m *TagMatcher) FindSpans(doc string) []Span {
	locs := m.pattern.FindAllStringIndex(doc, -1)
	if len(locs) == 0 {
		return nil
	}

	spans := make([]Span, len(locs))
	for i, loc := range locs {
		spans[i] = Span{Start: loc[0], End: loc[1]}
	}
	return spans
}

// matcherKey identifies a compiled matcher in the cache.
type matcherKey struct {
	tag             string
	caseInsensitive bool
}

// matcherCache holds one compiled *TagMatcher per matcherKey.
var matcherCache sync.Map

// lookupMatcher returns the cached matcher for tag, compiling it on first use.
func lookupMatcher(tag string, opts TagOptions) (*TagMatcher, error) {
	key := matcherKey{tag: tag, caseInsensitive: opts.CaseInsensitive}
	if m, ok := matcherCache.Load(key); ok {
		return m.(*TagMatcher), nil
	}
	m, err := NewTagMatcher(tag, opts)
	if err != nil {
		return nil, err
	}
	actual, _ := matcherCache.LoadOrStore(key, m)
	return actual.(*TagMatcher), nil
}

// FindPairedTags returns the spans of every tag element in doc, opening tag
// through closing tag. Patterns are compiled once per tag and options.
// Invalid tag names yield no spans.
func FindPairedTags(doc, tag string, opts TagOptions) []Span {
	m, err := lookupMatcher(tag, opts)
	if err != nil {
		return nil
	}
	return m.FindSpans(doc)
}

// pairedTagPattern builds the opener..closer pattern for tag.
// Opener: "<", optional space, name, then ">" or a space or "/" followed by
// anything up to ">". Closer: "<", optional space, "/", optional space, name,
// optional space, ">".
func pairedTagPattern(tag string, opts TagOptions) *regexp.Regexp {
	flags := "(?s)"
	if opts.CaseInsensitive {
		flags = "(?is)"
	}
	name := regexp.QuoteMeta(tag)
	return regexp.MustCompile(flags + `<\s*` + name + `(?:[\s/][^>]*)?>.*?<\s*/\s*` + name + `\s*>`)
}

// MergeSpans sorts spans by Start and drops every span that begins before
// the end of the last kept span. The first span wins: a later overlapping
// span is discarded even when it reaches further, so the result is not an
// interval union. Touching spans (End == Start) are both kept.
// The input slice is not modified.
func MergeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := sorted[:1]
	for _, s := range sorted[1:] {
		if s.Start < merged[len(merged)-1].End {
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// collectSpans finds the elements of every tag in doc and merges the spans.
func collectSpans(doc string, tags []string, opts TagOptions) []Span {
	var spans []Span
	for _, tag := range tags {
		spans = append(spans, FindPairedTags(doc, tag, opts)...)
	}
	return MergeSpans(spans)
}
