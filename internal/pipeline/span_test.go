package pipeline

// Notes:
// - FindPairedTags is tested through its observable spans; the regexp itself
//   is not inspected. Both rules reach it through collectSpans.
// - MergeSpans overlap policy is first-wins, so the "wider later span" cases
//   are deliberate and must not be "fixed" into a union.
// - The random no-overlap test uses a fixed seed to stay deterministic.

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// TestFindPairedTags - Opening through closing tag spans
// ---------------------------------------------------------------------------

func TestFindPairedTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		tag  string
		opts TagOptions
		want []Span
	}{
		{
			name: "empty document",
			doc:  "",
			tag:  "script",
			want: nil,
		},
		{
			name: "single element includes tags",
			doc:  "x<script>a</script>y",
			tag:  "script",
			want: []Span{{Start: 1, End: 19}},
		},
		{
			name: "attributes and whitespace",
			doc:  "<script noedit>noedit< /script>",
			tag:  "script",
			want: []Span{{Start: 0, End: 31}},
		},
		{
			name: "whitespace after slash and before bracket",
			doc:  "< iframe src=x>a</ iframe >",
			tag:  "iframe",
			want: []Span{{Start: 0, End: 27}},
		},
		{
			name: "unterminated element yields nothing",
			doc:  "<script>never closed",
			tag:  "script",
			want: nil,
		},
		{
			name: "two sequential elements",
			doc:  "<a>1</a><a>2</a>",
			tag:  "a",
			want: []Span{{Start: 0, End: 8}, {Start: 8, End: 16}},
		},
		{
			name: "nested element pairs with nearest closer",
			doc:  "<a><a>x</a></a>",
			tag:  "a",
			want: []Span{{Start: 0, End: 11}},
		},
		{
			name: "tag name must end at a boundary",
			doc:  "<abbr>x</abbr>",
			tag:  "a",
			want: nil,
		},
		{
			name: "self-closing opener runs to the closer",
			doc:  "<script/>x</script>",
			tag:  "script",
			want: []Span{{Start: 0, End: 19}},
		},
		{
			name: "multiline content",
			doc:  "<script>\nline\n</script>",
			tag:  "script",
			want: []Span{{Start: 0, End: 23}},
		},
		{
			name: "case-sensitive by default",
			doc:  "<SCRIPT>x</SCRIPT>",
			tag:  "script",
			want: nil,
		},
		{
			name: "case-insensitive when configured",
			doc:  "<SCRIPT>x</Script>",
			tag:  "script",
			opts: TagOptions{CaseInsensitive: true},
			want: []Span{{Start: 0, End: 18}},
		},
		{
			name: "invalid tag name yields nothing",
			doc:  "<a b>x</a b>",
			tag:  "a b",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FindPairedTags(tt.doc, tt.tag, tt.opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindPairedTags(%q, %q) mismatch (-want +got):\n%s", tt.doc, tt.tag, diff)
			}
		})
	}
}

func TestNewTagMatcher_InvalidName(t *testing.T) {
	t.Parallel()

	for _, tag := range []string{"", "1a", "a b", "scr|ipt", "<a>"} {
		_, err := NewTagMatcher(tag, TagOptions{})
		if !errors.Is(err, ErrInvalidTagName) {
			t.Errorf("NewTagMatcher(%q) error = %v, want ErrInvalidTagName", tag, err)
		}
	}
}

func TestTagMatcher_Tag(t *testing.T) {
	t.Parallel()

	m, err := NewTagMatcher("my-widget", TagOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Tag() != "my-widget" {
		t.Errorf("Tag() = %q, want %q", m.Tag(), "my-widget")
	}
}

func TestSpan_TextAndLen(t *testing.T) {
	t.Parallel()

	doc := "ab<i>c</i>d"
	s := Span{Start: 2, End: 10}
	if s.Text(doc) != "<i>c</i>" {
		t.Errorf("Text() = %q, want %q", s.Text(doc), "<i>c</i>")
	}
	if s.Len() != 8 {
		t.Errorf("Len() = %d, want 8", s.Len())
	}
}

// ---------------------------------------------------------------------------
// TestMergeSpans - First-wins overlap elimination
// ---------------------------------------------------------------------------

func TestMergeSpans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		spans []Span
		want  []Span
	}{
		{
			name:  "nil input",
			spans: nil,
			want:  nil,
		},
		{
			name:  "single span",
			spans: []Span{{3, 5}},
			want:  []Span{{3, 5}},
		},
		{
			name:  "disjoint spans are sorted",
			spans: []Span{{10, 12}, {0, 2}, {5, 7}},
			want:  []Span{{0, 2}, {5, 7}, {10, 12}},
		},
		{
			name:  "contained span is dropped",
			spans: []Span{{0, 10}, {2, 4}},
			want:  []Span{{0, 10}},
		},
		{
			name:  "later wider span is dropped, not unioned",
			spans: []Span{{0, 10}, {5, 20}},
			want:  []Span{{0, 10}},
		},
		{
			name:  "touching spans are both kept",
			spans: []Span{{5, 10}, {0, 5}},
			want:  []Span{{0, 5}, {5, 10}},
		},
		{
			name:  "comparison uses the last kept span",
			spans: []Span{{0, 10}, {2, 4}, {6, 12}, {10, 14}},
			want:  []Span{{0, 10}, {10, 14}},
		},
		{
			name:  "equal starts keep collection order",
			spans: []Span{{0, 3}, {0, 9}},
			want:  []Span{{0, 3}},
		},
		{
			name:  "equal starts keep collection order reversed",
			spans: []Span{{0, 9}, {0, 3}},
			want:  []Span{{0, 9}},
		},
		{
			name:  "smaller span inside larger one sorted first",
			spans: []Span{{4, 6}, {2, 30}},
			want:  []Span{{2, 30}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := MergeSpans(tt.spans)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeSpans(%v) mismatch (-want +got):\n%s", tt.spans, diff)
			}
		})
	}
}

func TestMergeSpans_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := []Span{{10, 12}, {0, 20}, {5, 7}}
	snapshot := append([]Span(nil), input...)

	_ = MergeSpans(input)

	if diff := cmp.Diff(snapshot, input); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestMergeSpans_NoOverlapProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := rng.Intn(20)
		spans := make([]Span, n)
		for i := range spans {
			start := rng.Intn(100)
			spans[i] = Span{Start: start, End: start + rng.Intn(30)}
		}

		merged := MergeSpans(spans)
		for i := 1; i < len(merged); i++ {
			if merged[i-1].Start > merged[i].Start {
				t.Fatalf("round %d: not sorted: %v", round, merged)
			}
			if merged[i-1].End > merged[i].Start {
				t.Fatalf("round %d: overlap between %v and %v", round, merged[i-1], merged[i])
			}
		}
		if n > 0 && len(merged) == 0 {
			t.Fatalf("round %d: non-empty input merged to nothing", round)
		}
	}
}

func TestCollectSpans_AcrossTags(t *testing.T) {
	t.Parallel()

	doc := "<iframe><script>x</script></iframe><script>y</script>"
	got := collectSpans(doc, []string{"script", "iframe"}, TagOptions{})
	want := []Span{{Start: 0, End: 35}, {Start: 35, End: 53}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collectSpans mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupMatcher_Cached(t *testing.T) {
	t.Parallel()

	first, err := lookupMatcher("template", TagOptions{})
	if err != nil {
		t.Fatalf("lookupMatcher: %v", err)
	}
	second, err := lookupMatcher("template", TagOptions{})
	if err != nil {
		t.Fatalf("lookupMatcher: %v", err)
	}
	if first != second {
		t.Error("lookupMatcher compiled the same tag twice")
	}

	folded, err := lookupMatcher("template", TagOptions{CaseInsensitive: true})
	if err != nil {
		t.Fatalf("lookupMatcher: %v", err)
	}
	if folded == first {
		t.Error("case-insensitive lookup reused the case-sensitive matcher")
	}

	if _, err := lookupMatcher("a b", TagOptions{}); !errors.Is(err, ErrInvalidTagName) {
		t.Errorf("lookupMatcher(%q) error = %v, want ErrInvalidTagName", "a b", err)
	}
}
