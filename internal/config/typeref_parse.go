package config

import "fmt"

// ParseTypeRef parses the compact GraphQL type-expression syntax used by
// the YAML/JSON configuration formats (spec §6 "JSON and YAML carrying the
// same object shape as SDL"): a bare name, optionally list-wrapped with
// "[...]" and/or suffixed with "!" for non-null, at either nesting level
// (e.g. "[String!]!").
func ParseTypeRef(s string) (*TypeRef, error) {
	t, rest, err := parseTypeRef(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("config: unexpected trailing input %q in type expression %q", rest, s)
	}
	return t, nil
}

func parseTypeRef(s string) (*TypeRef, string, error) {
	if s == "" {
		return nil, "", fmt.Errorf("config: empty type expression")
	}
	var inner *TypeRef
	var rest string
	if s[0] == '[' {
		end := matchingBracket(s)
		if end < 0 {
			return nil, "", fmt.Errorf("config: unterminated list type in %q", s)
		}
		elem, elemRest, err := parseTypeRef(s[1:end])
		if err != nil {
			return nil, "", err
		}
		if elemRest != "" {
			return nil, "", fmt.Errorf("config: unexpected trailing input %q inside list type", elemRest)
		}
		inner = &TypeRef{Kind: KindList, OfType: elem}
		rest = s[end+1:]
	} else {
		i := 0
		for i < len(s) && s[i] != '!' && s[i] != '[' && s[i] != ']' {
			i++
		}
		name := s[:i]
		if name == "" {
			return nil, "", fmt.Errorf("config: expected a type name in %q", s)
		}
		inner = &TypeRef{Kind: KindNamed, Named: name}
		rest = s[i:]
	}
	if rest != "" && rest[0] == '!' {
		inner = &TypeRef{Kind: KindNonNull, OfType: inner}
		rest = rest[1:]
	}
	return inner, rest, nil
}

func matchingBracket(s string) int {
	depth := 0
	for i, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
