package resolverir

import (
	"context"

	"github.com/hanpama/protograph/internal/jsvm"
	"github.com/hanpama/protograph/internal/reqtemplate"
)

// UpstreamHTTPResponse is the raw reply from an HTTP call, kept in wire form
// (status/headers/body). The evaluator checks Status and decodes Body; it
// does not read Headers.
type UpstreamHTTPResponse struct {
	Status  int
	Headers map[string][]string
	Body    []byte
}

// Upstream performs the actual protocol I/O an IO node describes. The
// evaluator never speaks HTTP/gRPC/GraphQL/script directly; it only calls
// through this seam, which internal/grpctp, internal/protoreg and an
// http.Client-backed implementation satisfy in the server's wiring layer.
type Upstream interface {
	CallHTTP(ctx context.Context, req *reqtemplate.HTTPRequest) (*UpstreamHTTPResponse, error)
	CallGRPC(ctx context.Context, op reqtemplate.GRPCOperation, req *reqtemplate.GRPCRequest) (map[string]any, error)
	CallGraphQL(ctx context.Context, opType reqtemplate.GraphQLOperationType, url string, headers map[string][]string, document string) (map[string]any, error)
	CallScript(ctx context.Context, name string, req jsvm.Request) (any, error)
}
