package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMarker is appended after every qualifying word.
const DefaultMarker = "™"

// wordLength is the exact number of letters a marked word has.
const wordLength = 6

// DefaultExcludedTags lists the elements whose content is never marked.
var DefaultExcludedTags = []string{"script", "iframe"}

// Sentinel errors for WordMark construction.
var (
	ErrEmptyMarker   = errors.New("marker cannot be empty")
	ErrInvalidMarker = errors.New("marker must not start with whitespace, '<', a closing glyph or a delimiter")
)

// Glyphs that may surround a word without gluing it to its neighbours.
const (
	openGlyphs  = "([{'”\"`«/\\"
	closeGlyphs = ")]}'”\"`»/\\"
	delimiters  = ".,:;"
)

// WordMarkOptions configures a WordMark rule.
type WordMarkOptions struct {
	Marker              string   // glyph appended after each word (default "™")
	ExcludedTags        []string // elements copied through untouched (default script, iframe)
	CaseInsensitiveTags bool
}

// WordMark appends a marker glyph after every isolated six-letter word
// found outside tag definitions and excluded elements.
type WordMark struct {
	marker   string
	excluded []string
	tagOpts  TagOptions
}

// NewWordMark creates a WordMark rule.
// Zero-value options select DefaultMarker and DefaultExcludedTags.
func NewWordMark(opts WordMarkOptions) (*WordMark, error) {
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	if strings.TrimSpace(marker) == "" {
		return nil, ErrEmptyMarker
	}
	// A marked word must fail the isolation test on the next pass.
	first, _ := utf8.DecodeRuneInString(marker)
	if unicode.IsSpace(first) || first == '<' ||
		strings.ContainsRune(closeGlyphs, first) || strings.ContainsRune(delimiters, first) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMarker, marker)
	}

	tags := opts.ExcludedTags
	if tags == nil {
		tags = DefaultExcludedTags
	}

	tagOpts := TagOptions{CaseInsensitive: opts.CaseInsensitiveTags}
	for _, tag := range tags {
		if _, err := lookupMatcher(tag, tagOpts); err != nil {
			return nil, err
		}
	}

	return &WordMark{marker: marker, excluded: slices.Clone(tags), tagOpts: tagOpts}, nil
}

// Name implements Rule.
func (w *WordMark) Name() string {
	return "word-mark"
}

// ExcludedSpans returns the merged spans of all excluded elements in doc.
func (w *WordMark) ExcludedSpans(doc string) []Span {
	return collectSpans(doc, w.excluded, w.tagOpts)
}

// Transform implements Rule. Excluded spans are copied byte-for-byte; the
// text between them is marked segment by segment.
func (w *WordMark) Transform(doc string) (string, error) {
	var b strings.Builder
	b.Grow(len(doc) + len(doc)/32)

	start := 0
	for _, s := range w.ExcludedSpans(doc) {
		w.markSegment(&b, doc[start:s.Start])
		b.WriteString(doc[s.Start:s.End])
		start = s.End
	}
	w.markSegment(&b, doc[start:])

	return b.String(), nil
}

// markSegment writes seg to b with the marker inserted after each qualifying
// word. The segment edges act as the start and end of text.
func (w *WordMark) markSegment(b *strings.Builder, seg string) {
	written := 0
	prev := utf8.RuneError
	atStart := true
	angles := angleScanner{text: seg, next: -1}

	for i := 0; i < len(seg); {
		r, size := utf8.DecodeRuneInString(seg[i:])

		if unicode.IsLetter(r) && (atStart || opensWord(prev)) {
			if end, ok := letterRun(seg, i); ok && closesWord(seg, end, &angles) {
				b.WriteString(seg[written:end])
				b.WriteString(w.marker)
				written = end
				prev, _ = utf8.DecodeLastRuneInString(seg[:end])
				atStart = false
				i = end
				continue
			}
		}

		prev = r
		atStart = false
		i += size
	}

	b.WriteString(seg[written:])
}

// opensWord reports whether a word may start right after r.
func opensWord(r rune) bool {
	return unicode.IsSpace(r) || r == '>' || strings.ContainsRune(openGlyphs, r)
}

// letterRun reports whether exactly wordLength letters start at i and
// returns the byte offset just past them.
func letterRun(seg string, i int) (int, bool) {
	for n := 0; n < wordLength; n++ {
		if i >= len(seg) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(seg[i:])
		if !unicode.IsLetter(r) {
			return 0, false
		}
		i += size
	}
	return i, true
}

// closesWord reports whether a word ending at end stands on its own: it is
// not continued by word characters, not glued to a delimiter, and not part
// of a tag definition.
func closesWord(seg string, end int, angles *angleScanner) bool {
	if end == len(seg) {
		return true
	}

	r, size := utf8.DecodeRuneInString(seg[end:])
	switch {
	case strings.ContainsRune(delimiters, r):
		if end+size < len(seg) {
			next, _ := utf8.DecodeRuneInString(seg[end+size:])
			if !unicode.IsSpace(next) && next != '<' {
				return false
			}
		}
	case unicode.IsSpace(r), r == '<', strings.ContainsRune(closeGlyphs, r):
	default:
		return false
	}

	return !angles.insideTag(end)
}

// angleScanner answers "does a '>' come before any '<' from here on?" with
// a cached lookup, so long tag-free text is scanned once.
type angleScanner struct {
	text string
	next int // index of the next '<' or '>' at or after from, len(text) if none
	from int
}

// insideTag reports whether pos sits inside a tag definition.
func (a *angleScanner) insideTag(pos int) bool {
	if a.next < 0 || pos < a.from || pos > a.next {
		idx := strings.IndexAny(a.text[pos:], "<>")
		if idx < 0 {
			a.next = len(a.text)
		} else {
			a.next = pos + idx
		}
	}
	a.from = pos
	return a.next < len(a.text) && a.text[a.next] == '>'
}
