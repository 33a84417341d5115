package pipeline

import (
	"errors"
	"regexp"
	"strings"
)

// Sentinel errors for LinkRewrite construction.
var (
	ErrMissingOrigin      = errors.New("origin is required for link rewriting")
	ErrMissingReplacement = errors.New("replacement base URL is required for link rewriting")
)

// anchorTags lists the elements whose href values are rewritten.
var anchorTags = []string{"a"}

// tagTokenPattern matches a single tag definition. Quoted attribute values
// may contain ">"; an unbalanced quote is taken as a plain character.
var tagTokenPattern = regexp.MustCompile(`<(?:[^<>"']|"[^"<]*"|'[^'<]*'|["'])*>`)

// hrefPattern matches an href attribute up to and including its opening quote.
// Capture 1 is the quote character.
var hrefPattern = regexp.MustCompile(`(?i)\shref\s*=\s*(["'])`)

// LinkRewriteOptions configures a LinkRewrite rule.
type LinkRewriteOptions struct {
	Origin              string // e.g. "https://habr.com"
	Replacement         string // e.g. "http://127.0.0.1:8080"
	CaseInsensitiveTags bool
}

// LinkRewrite points anchor links at the proxy: inside every <a>...</a>
// span, the first href value that starts with the origin gets the origin
// replaced. Nothing outside href values of anchor spans is touched.
type LinkRewrite struct {
	origin      string
	replacement string
	tagOpts     TagOptions
}

// NewLinkRewrite creates a LinkRewrite rule.
// Returns ErrMissingOrigin or ErrMissingReplacement when either is empty.
func NewLinkRewrite(opts LinkRewriteOptions) (*LinkRewrite, error) {
	origin := strings.TrimSuffix(strings.TrimSpace(opts.Origin), "/")
	if origin == "" {
		return nil, ErrMissingOrigin
	}
	replacement := strings.TrimSuffix(strings.TrimSpace(opts.Replacement), "/")
	if replacement == "" {
		return nil, ErrMissingReplacement
	}

	tagOpts := TagOptions{CaseInsensitive: opts.CaseInsensitiveTags}
	return &LinkRewrite{origin: origin, replacement: replacement, tagOpts: tagOpts}, nil
}

// Name implements Rule.
func (l *LinkRewrite) Name() string {
	return "link-rewrite"
}

// AnchorSpans returns the merged spans of all anchor elements in doc.
func (l *LinkRewrite) AnchorSpans(doc string) []Span {
	return collectSpans(doc, anchorTags, l.tagOpts)
}

// Transform implements Rule.
func (l *LinkRewrite) Transform(doc string) (string, error) {
	var b strings.Builder
	b.Grow(len(doc))

	written := 0
	for _, s := range l.AnchorSpans(doc) {
		pos, ok := l.findOrigin(s.Text(doc))
		if !ok {
			continue
		}
		at := s.Start + pos
		b.WriteString(doc[written:at])
		b.WriteString(l.replacement)
		written = at + len(l.origin)
	}

	if written == 0 {
		return doc, nil
	}
	b.WriteString(doc[written:])
	return b.String(), nil
}

// findOrigin returns the offset within anchor of the first href value that
// starts with the origin followed by a URL boundary.
func (l *LinkRewrite) findOrigin(anchor string) (int, bool) {
	for _, tok := range tagTokenPattern.FindAllStringIndex(anchor, -1) {
		tag := anchor[tok[0]:tok[1]]
		for _, m := range hrefPattern.FindAllStringSubmatchIndex(tag, -1) {
			quote := tag[m[2]:m[3]]
			value := tag[m[1]:]
			if end := strings.Index(value, quote); end >= 0 {
				value = value[:end]
			}
			if l.matchesOrigin(value) {
				return tok[0] + m[1], true
			}
		}
	}
	return 0, false
}

// matchesOrigin reports whether value starts with the origin as a whole
// scheme and host, so https://habr.com does not match https://habr.community.
func (l *LinkRewrite) matchesOrigin(value string) bool {
	if !strings.HasPrefix(value, l.origin) {
		return false
	}
	rest := value[len(l.origin):]
	return rest == "" || strings.ContainsRune("/?#", rune(rest[0]))
}
