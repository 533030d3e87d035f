package reqtemplate

import (
	"fmt"
	"strings"

	"github.com/hanpama/protograph/internal/evalctx"
	"github.com/hanpama/protograph/internal/mustache"
)

// GraphQLOperationType distinguishes remote query vs mutation calls.
type GraphQLOperationType int

const (
	GraphQLQuery GraphQLOperationType = iota
	GraphQLMutation
)

// GraphQLArg is one templated remote-field argument.
type GraphQLArg struct {
	Name  string
	Value *mustache.Template
}

// GraphQL is the remote-GraphQL request template (spec §4.B "GraphQL
// template"). Batch is carried from configuration but no code reads it: a
// group_by GraphQL node issues one single-request document per key, and
// calls are not aliased together into one document.
type GraphQL struct {
	URL           *mustache.Template
	Headers       []HTTPHeader
	OperationType GraphQLOperationType
	FieldName     string
	Args          []GraphQLArg
	Batch         bool
}

// GraphQLRequest is one rendered remote call: the field selection and its
// concrete argument values, not yet assembled into a document (assembly,
// including aliasing for batched calls, is the DataLoader's job).
type GraphQLRequest struct {
	URL       string
	Headers   map[string][]string
	FieldName string
	Args      map[string]any
}

func (t *GraphQL) Render(ctx evalctx.Context) (*GraphQLRequest, error) {
	url := mustache.Render(t.URL, ctx)
	headers := make(map[string][]string, len(t.Headers))
	for _, h := range t.Headers {
		headers[h.Name] = append(headers[h.Name], mustache.Render(h.Value, ctx))
	}
	args := make(map[string]any, len(t.Args))
	for _, a := range t.Args {
		args[a.Name] = mustache.Render(a.Value, ctx)
	}
	return &GraphQLRequest{URL: url, Headers: headers, FieldName: t.FieldName, Args: args}, nil
}

// BuildDocument assembles a single GraphQL document from one or more
// rendered requests that share the same FieldName/OperationType, aliasing
// each call f0:, f1:, ...; a single request is aliased f0 as well. The
// evaluator passes one request at a time.
func BuildDocument(opType GraphQLOperationType, reqs []*GraphQLRequest) string {
	opKeyword := "query"
	if opType == GraphQLMutation {
		opKeyword = "mutation"
	}
	var b strings.Builder
	b.WriteString(opKeyword)
	b.WriteString(" {")
	for i, r := range reqs {
		alias := fmt.Sprintf("f%d", i)
		b.WriteString(fmt.Sprintf(" %s: %s", alias, r.FieldName))
		if len(r.Args) > 0 {
			b.WriteString("(")
			first := true
			for k, v := range r.Args {
				if !first {
					b.WriteString(", ")
				}
				first = false
				b.WriteString(fmt.Sprintf("%s: %s", k, graphqlLiteral(v)))
			}
			b.WriteString(")")
		}
	}
	b.WriteString(" }")
	return b.String()
}

func graphqlLiteral(v any) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
