package reqtemplate

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// headerListEntry is one "name=value[?]" pair in the compact header/query
// mini-grammar read by ParseHeaderList:
// `X-Trace={{headers.trace}}; X-Empty={{args.x}}?`. The YAML/JSON config
// loader does not use this grammar; its HTTP headers are plain maps.
// The trailing "?" marks a query parameter as skip_if_empty (spec §4.B
// "Query parameter handling").
type headerListEntry struct {
	Name  string `parser:"@Ident '='"`
	Value string `parser:"@Value"`
}

type headerListGrammar struct {
	Entries []*headerListEntry `parser:"(@@ (';' @@)*)?"`
}

var headerListLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Semi", Pattern: `;`},
	{Name: "Eq", Pattern: `=`},
	{Name: "Value", Pattern: `[^;]+`},
})

var headerListParser = participle.MustBuild[headerListGrammar](
	participle.Lexer(headerListLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseHeaderList parses the compact "name=value[?]; name=value[?]" syntax
// into ordered header templates plus a parallel skip_if_empty flag list,
// suitable for building either HTTPHeader (flags ignored) or
// HTTPQueryParam (flags honored) slices.
func ParseHeaderList(src string) (names []string, values []string, skipIfEmpty []bool, err error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, nil, nil, nil
	}
	g, err := headerListParser.ParseString("", src)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, e := range g.Entries {
		v := strings.TrimSpace(e.Value)
		skip := false
		if strings.HasSuffix(v, "?") {
			skip = true
			v = strings.TrimSuffix(v, "?")
		}
		names = append(names, e.Name)
		values = append(values, v)
		skipIfEmpty = append(skipIfEmpty, skip)
	}
	return names, values, skipIfEmpty, nil
}
