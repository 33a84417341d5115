package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrRuleFailed is returned when a rule panics while transforming a document.
var ErrRuleFailed = errors.New("rewrite rule failed")

// Rule transforms a whole document. Implementations hold no per-document
// state and must be safe for concurrent use.
type Rule interface {
	Name() string
	Transform(doc string) (string, error)
}

// Compile-time interface implementation checks.
var (
	_ Rule = (*WordMark)(nil)
	_ Rule = (*LinkRewrite)(nil)
)

// Pipeline applies an ordered list of rules, feeding the output of each
// rule to the next. It holds no document state between calls.
type Pipeline struct {
	rules []Rule
}

// New creates a Pipeline running rules in the given order.
func New(rules ...Rule) *Pipeline {
	return &Pipeline{rules: append([]Rule(nil), rules...)}
}

// Names returns the rule names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name()
	}
	return names
}

// Len returns the number of rules.
func (p *Pipeline) Len() int {
	return len(p.rules)
}

// Process runs doc through every rule in order and returns the final document.
// Processing stops at the first rule error; rules are never retried or skipped.
// Cancellation is checked before each rule.
func (p *Pipeline) Process(ctx context.Context, doc string) (string, error) {
	for _, rule := range p.rules {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := apply(rule, doc)
		if err != nil {
			return "", fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		doc = out
	}
	return doc, nil
}

// apply runs a single rule, turning a panic into ErrRuleFailed so callers
// can fall back to the original document.
func apply(rule Rule, doc string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRuleFailed, r)
		}
	}()
	return rule.Transform(doc)
}
