package reqtemplate

import (
	"github.com/hanpama/protograph/internal/evalctx"
	"github.com/hanpama/protograph/internal/mustache"
)

// GRPCOperation identifies the proto method a GRPC template invokes, linked
// at Blueprint-build time against a FileDescriptorSet (spec §4.B "gRPC
// template", §6 "@link ... Protobuf").
type GRPCOperation struct {
	Service           string
	MethodName        string
	FileDescriptorRef string
}

// GRPC is the gRPC request template. Body is rendered into a generic JSON
// object (map[string]any) keyed by proto JSON field names; internal/protoreg
// and internal/grpcrt own converting that into an actual dynamicpb message,
// keeping this package free of a protoreflect dependency for the templating
// concern itself (the dependency is still used elsewhere in the system, see
// DESIGN.md).
type GRPC struct {
	URL       *mustache.Template
	Headers   []HTTPHeader
	Body      *mustache.DynamicValue
	Operation GRPCOperation

	// GroupBy is the path whose value keys a group_by DataLoader. Each key
	// is sent as its own call; a repeated-field reply is not split into
	// per-key responses.
	GroupBy []string
}

// GRPCRequest is the rendered request: a target URL (host:port, resolved
// via mustache so it can reference env/headers), trailing metadata, and a
// JSON-shaped body ready for proto field assignment.
type GRPCRequest struct {
	URL     string
	Headers map[string][]string
	Body    map[string]any
}

func (t *GRPC) Render(ctx evalctx.Context) (*GRPCRequest, error) {
	url := mustache.Render(t.URL, ctx)
	headers := make(map[string][]string, len(t.Headers))
	for _, h := range t.Headers {
		headers[h.Name] = append(headers[h.Name], mustache.Render(h.Value, ctx))
	}
	var body map[string]any
	if t.Body != nil {
		rendered, err := t.Body.Render(ctx)
		if err != nil {
			return nil, err
		}
		if m, ok := rendered.(map[string]any); ok {
			body = m
		}
	}
	return &GRPCRequest{URL: url, Headers: headers, Body: body}, nil
}
