package gateway

import (
	"sort"
	"strings"
)

// segmentKind classifies one path segment of a compiled pattern.
type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentParam
)

type segment struct {
	kind  segmentKind
	value string // literal text, or parameter name for segmentParam
}

// Pattern is a compiled EndpointPattern: an ordered sequence of literal and
// named-parameter segments. Patterns are immutable once compiled and safe
// for concurrent use.
type Pattern struct {
	source   string
	segments []segment
	literals int // count of literal segments, used for specificity ordering
}

// CompilePattern compiles a source pattern string ("/users/:userId/posts/:postId")
// into a Pattern. It rejects empty segments, malformed parameter names, and
// parameter names declared more than once.
func CompilePattern(source string) (Pattern, error) {
	if source == "" || source[0] != '/' {
		return Pattern{}, &PatternError{Pattern: source, Reason: "pattern must start with '/'"}
	}

	raw := strings.Split(source, "/")[1:] // drop leading empty element before '/'
	segments := make([]segment, 0, len(raw))
	literals := 0
	seen := make(map[string]bool)

	for _, part := range raw {
		if part == "" {
			return Pattern{}, &PatternError{Pattern: source, Reason: "empty path segment"}
		}
		if strings.HasPrefix(part, ":") {
			name := part[1:]
			if name == "" || strings.Contains(name, "/") {
				return Pattern{}, &PatternError{Pattern: source, Reason: "parameter name must be non-empty and contain no '/'"}
			}
			if seen[name] {
				return Pattern{}, &PatternError{Pattern: source, Reason: "duplicate parameter name"}
			}
			seen[name] = true
			segments = append(segments, segment{kind: segmentParam, value: name})
			continue
		}
		segments = append(segments, segment{kind: segmentLiteral, value: part})
		literals++
	}

	return Pattern{source: source, segments: segments, literals: literals}, nil
}

// String returns the original source string the pattern was compiled from.
func (p Pattern) String() string {
	return p.source
}

// normalizedKey returns a value such that two patterns conflict iff their
// normalizedKey is equal: every parameter segment is collapsed to a
// placeholder so differently named parameters in the same position still
// collide.
func (p Pattern) normalizedKey() string {
	parts := make([]string, len(p.segments))
	for i, s := range p.segments {
		if s.kind == segmentParam {
			parts[i] = "\x00param\x00"
		} else {
			parts[i] = s.value
		}
	}
	return strings.Join(parts, "/")
}

// ConflictsWith reports whether p and other would match exactly the same
// set of request paths.
func (p Pattern) ConflictsWith(other Pattern) bool {
	return p.normalizedKey() == other.normalizedKey()
}

// paramNames returns the ordered parameter names declared by the pattern.
func (p Pattern) paramNames() []string {
	var names []string
	for _, s := range p.segments {
		if s.kind == segmentParam {
			names = append(names, s.value)
		}
	}
	return names
}

// Match reports whether the given decoded request path segments match this
// pattern, and if so returns the extracted path parameter bindings.
func (p Pattern) Match(requestSegments []string) (map[string]string, bool) {
	if len(requestSegments) != len(p.segments) {
		return nil, false
	}
	var params map[string]string
	for i, s := range p.segments {
		switch s.kind {
		case segmentLiteral:
			if s.value != requestSegments[i] {
				return nil, false
			}
		case segmentParam:
			if params == nil {
				params = make(map[string]string, len(p.segments))
			}
			params[s.value] = requestSegments[i]
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}

// SplitPath splits a normalised request path ("/users/42") into its
// segments ("users", "42"), mirroring how CompilePattern splits its source.
func SplitPath(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	trimmed := strings.TrimPrefix(path, "/")
	return strings.Split(trimmed, "/")
}

// SpecificityLess orders two patterns by specificity: more literal segments
// wins; ties break lexicographically by the pattern source string. It
// returns true if a should be preferred over b (a is "less" in a sort that
// places the most specific pattern first).
func SpecificityLess(a, b Pattern) bool {
	if a.literals != b.literals {
		return a.literals > b.literals
	}
	return a.source < b.source
}

// SortBySpecificity sorts patterns most-specific-first. The ordering is
// stable and computed once at registration time, not per request.
func SortBySpecificity(patterns []Pattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		return SpecificityLess(patterns[i], patterns[j])
	})
}
