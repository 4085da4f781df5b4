package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/pitstop/pkg/persistence"
)

// Mask replaces every masked value.
const Mask = "***"

// DefaultPIIPatterns match the customer identity fields of a run.
var DefaultPIIPatterns = []string{`^customer_(id|name)$`}

type piiMiddleware struct {
	next     persistence.Store
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks string values whose JSON
// key matches one of the patterns. The masked values are then scrubbed from
// every other string of the document, so free text such as an outreach
// message does not repeat them. Masking is one way: Get returns the masked
// document. Non-string values are kept so the document still decodes.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next persistence.Store) persistence.Store {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

// MustPIIMiddleware is like NewPIIMiddleware but panics on an invalid
// pattern. It is meant for patterns known at compile time.
func MustPIIMiddleware(patternStrings []string) Middleware {
	mw, err := NewPIIMiddleware(patternStrings)
	if err != nil {
		panic(err)
	}
	return mw
}

func (m *piiMiddleware) Put(ctx context.Context, runID string, doc []byte) error {
	var tree map[string]any
	if err := json.Unmarshal(doc, &tree); err != nil {
		return fmt.Errorf("pii middleware expects a JSON object: %w", err)
	}
	secrets := map[string]struct{}{}
	maskValue(tree, m.patterns, secrets)
	if len(secrets) > 0 {
		scrub(tree, strings.NewReplacer(replacements(secrets)...))
	}
	masked, err := json.Marshal(tree)
	if err != nil {
		return err
	}
	return m.next.Put(ctx, runID, masked)
}

func (m *piiMiddleware) Get(ctx context.Context, runID string) ([]byte, error) {
	return m.next.Get(ctx, runID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskValue masks matching keys and collects the values it replaced.
func maskValue(v any, patterns []*regexp.Regexp, secrets map[string]struct{}) {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if s, ok := child.(string); ok && matchAny(k, patterns) {
				if s != "" && s != Mask {
					secrets[s] = struct{}{}
				}
				node[k] = Mask
				continue
			}
			maskValue(child, patterns, secrets)
		}
	case []any:
		for _, child := range node {
			maskValue(child, patterns, secrets)
		}
	}
}

// replacements lists longer secrets first so that a secret containing
// another one is replaced whole.
func replacements(secrets map[string]struct{}) []string {
	values := make([]string, 0, len(secrets))
	for s := range secrets {
		values = append(values, s)
	}
	sort.Slice(values, func(i, j int) bool {
		if len(values[i]) != len(values[j]) {
			return len(values[i]) > len(values[j])
		}
		return values[i] < values[j]
	})
	pairs := make([]string, 0, 2*len(values))
	for _, s := range values {
		pairs = append(pairs, s, Mask)
	}
	return pairs
}

func scrub(v any, r *strings.Replacer) {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if s, ok := child.(string); ok {
				node[k] = r.Replace(s)
				continue
			}
			scrub(child, r)
		}
	case []any:
		for i, child := range node {
			if s, ok := child.(string); ok {
				node[i] = r.Replace(s)
				continue
			}
			scrub(child, r)
		}
	}
}

func matchAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
