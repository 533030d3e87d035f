// Package mustache implements the minimal template grammar used throughout
// the resolver IR and request templates: literal text interleaved with
// {{ident(.ident)*}} expressions.
package mustache

import "strings"

// SegmentKind distinguishes literal text from an expression reference.
type SegmentKind int

const (
	Literal SegmentKind = iota
	Expression
)

// Segment is one piece of a parsed template.
type Segment struct {
	Kind  SegmentKind
	Text  string   // set when Kind == Literal
	Path  []string // set when Kind == Expression, e.g. ["args", "id"]
}

// Template is a parsed sequence of segments, ready to render repeatedly
// without re-parsing. Blueprint construction parses every template once;
// the executor only walks the segment list.
type Template struct {
	segments []Segment
	raw      string
}

// Raw returns the original template source.
func (t *Template) Raw() string { return t.raw }

// IsStatic reports whether the template contains no expressions, i.e.
// rendering it always yields the literal input.
func (t *Template) IsStatic() bool {
	for _, s := range t.segments {
		if s.Kind == Expression {
			return false
		}
	}
	return true
}

// Resolver resolves a dotted path to its string representation. Missing
// paths must return ("", false); Render then substitutes the empty string,
// per spec: "missing paths render as empty string (no error)".
type Resolver interface {
	PathString(path []string) (string, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(path []string) (string, bool)

func (f ResolverFunc) PathString(path []string) (string, bool) { return f(path) }

// Parse parses src into a Template. Parsing never fails: unmatched "{{" is
// treated as literal text, mirroring the teacher's tolerant parsers which
// prefer accepting input over rejecting it in builder passes that already
// collect violations elsewhere.
func Parse(src string) *Template {
	segs := make([]Segment, 0, 4)
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			segs = append(segs, Segment{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	n := len(src)
	for i < n {
		if i+1 < n && src[i] == '{' && src[i+1] == '{' {
			end := strings.Index(src[i+2:], "}}")
			if end < 0 {
				// No closing delimiter: treat the rest as literal.
				lit.WriteString(src[i:])
				break
			}
			inner := strings.TrimSpace(src[i+2 : i+2+end])
			if inner == "" {
				// Empty expression: preserve literally, matches "no error" tolerance.
				lit.WriteString(src[i : i+2+end+2])
			} else {
				flushLiteral()
				segs = append(segs, Segment{Kind: Expression, Path: strings.Split(inner, ".")})
			}
			i = i + 2 + end + 2
			continue
		}
		lit.WriteByte(src[i])
		i++
	}
	flushLiteral()

	return &Template{segments: segs, raw: src}
}

// Render walks the parsed segment list and substitutes each expression via
// resolver.PathString. A template with no expressions renders to the
// literal input byte-for-byte (spec §8 invariant 6).
func Render(t *Template, resolver Resolver) string {
	if t == nil {
		return ""
	}
	if t.IsStatic() {
		return t.raw
	}
	var out strings.Builder
	for _, seg := range t.segments {
		switch seg.Kind {
		case Literal:
			out.WriteString(seg.Text)
		case Expression:
			if v, ok := resolver.PathString(seg.Path); ok {
				out.WriteString(v)
			}
		}
	}
	return out.String()
}
