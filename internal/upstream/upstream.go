// Package upstream is the concrete resolverir.Upstream implementation: the
// one place in the system that actually speaks HTTP, gRPC, remote GraphQL,
// and scripted resolvers. internal/resolverir's evaluator never imports
// net/http or google.golang.org/grpc directly — it only calls through the
// Upstream seam, which this package satisfies in the server's wiring layer
// (spec §4.B "Upstream templates").
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hanpama/protograph/internal/grpcrt"
	"github.com/hanpama/protograph/internal/jsvm"
	"github.com/hanpama/protograph/internal/protoreg"
	"github.com/hanpama/protograph/internal/reqtemplate"
	"github.com/hanpama/protograph/internal/resolverir"
)

// Upstream implements resolverir.Upstream over a plain net/http.Client for
// HTTP and remote-GraphQL calls, a grpcrt.Transport (internal/grpctp's
// pooled implementation in production, a fake in tests) for gRPC, and an
// internal/jsvm.Worker for scripted resolvers.
type Upstream struct {
	HTTP   *http.Client
	GRPC   grpcrt.Transport
	Protos *protoreg.Registry
	Script jsvm.Worker
}

var _ resolverir.Upstream = (*Upstream)(nil)

// New builds an Upstream from its three protocol backends. httpClient may
// be nil, in which case http.DefaultClient is used.
func New(httpClient *http.Client, grpcTransport grpcrt.Transport, protos *protoreg.Registry, script jsvm.Worker) *Upstream {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Upstream{HTTP: httpClient, GRPC: grpcTransport, Protos: protos, Script: script}
}

// CallHTTP issues a single rendered HTTP request and returns the raw wire
// response, leaving the status check and JSON decoding to the evaluator.
func (u *Upstream) CallHTTP(ctx context.Context, req *reqtemplate.HTTPRequest) (*resolverir.UpstreamHTTPResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	for name, vals := range req.Headers {
		for _, v := range vals {
			httpReq.Header.Add(name, v)
		}
	}
	resp, err := u.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream: HTTP call failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read response body: %w", err)
	}
	return &resolverir.UpstreamHTTPResponse{Status: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// CallGRPC resolves the operation's method against the loaded descriptor
// set, marshals the rendered body into a dynamicpb request, places the call
// through internal/grpctp, and decodes the response back into a JSON-shaped
// map the evaluator folds into a resolverir.Result (spec §4.B "gRPC
// template").
func (u *Upstream) CallGRPC(ctx context.Context, op reqtemplate.GRPCOperation, req *reqtemplate.GRPCRequest) (map[string]any, error) {
	md, err := u.Protos.Method(op.FileDescriptorRef, op.Service, op.MethodName)
	if err != nil {
		return nil, err
	}
	reqMsg, err := protoreg.Marshal(md, req.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: marshal gRPC request: %w", err)
	}
	respMsg, err := u.GRPC.Call(ctx, md, reqMsg)
	if err != nil {
		return nil, err
	}
	return protoreg.Unmarshal(respMsg), nil
}

// graphQLEnvelope is the standard wire shape of a GraphQL response.
type graphQLEnvelope struct {
	Data   map[string]any   `json:"data"`
	Errors []graphQLWireErr `json:"errors"`
}

type graphQLWireErr struct {
	Message string `json:"message"`
}

// CallGraphQL sends a pre-assembled document to a remote GraphQL endpoint
// over HTTP POST and returns the decoded "data" object, keyed by whatever
// aliases reqtemplate.BuildDocument assigned (spec §4.B "GraphQL
// template").
func (u *Upstream) CallGraphQL(ctx context.Context, opType reqtemplate.GraphQLOperationType, url string, headers map[string][]string, document string) (map[string]any, error) {
	payload, err := json.Marshal(map[string]string{"query": document})
	if err != nil {
		return nil, fmt.Errorf("upstream: encode GraphQL request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("upstream: build GraphQL request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for name, vals := range headers {
		for _, v := range vals {
			httpReq.Header.Add(name, v)
		}
	}
	resp, err := u.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream: GraphQL call failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream: read GraphQL response: %w", err)
	}
	var env graphQLEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("upstream: decode GraphQL response: %w", err)
	}
	if env.Data == nil && len(env.Errors) > 0 {
		return nil, fmt.Errorf("upstream: remote GraphQL error: %s", env.Errors[0].Message)
	}
	return env.Data, nil
}

// CallScript dispatches to the scripted-resolver worker (spec §3.1
// Resolver::Js).
func (u *Upstream) CallScript(ctx context.Context, name string, req jsvm.Request) (any, error) {
	return u.Script.Invoke(name, req)
}
