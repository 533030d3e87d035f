package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/jsvm"
	"github.com/hanpama/protograph/internal/reqtemplate"
	"github.com/hanpama/protograph/internal/resolverir"
	reqid "github.com/hanpama/protograph/internal/reqid"
	"google.golang.org/grpc/metadata"
)

// fakeUpstream satisfies resolverir.Upstream, delegating only CallScript to
// a test-provided hook and returning nil for every other protocol — this package
// only needs a script resolver to observe the per-request context.
type fakeUpstream struct {
	onScript func(ctx context.Context, name string, req jsvm.Request) (any, error)
}

func (f *fakeUpstream) CallHTTP(ctx context.Context, req *reqtemplate.HTTPRequest) (*resolverir.UpstreamHTTPResponse, error) {
	return nil, nil
}
func (f *fakeUpstream) CallGRPC(ctx context.Context, op reqtemplate.GRPCOperation, req *reqtemplate.GRPCRequest) (map[string]any, error) {
	return nil, nil
}
func (f *fakeUpstream) CallGraphQL(ctx context.Context, opType reqtemplate.GraphQLOperationType, url string, headers map[string][]string, document string) (map[string]any, error) {
	return nil, nil
}
func (f *fakeUpstream) CallScript(ctx context.Context, name string, req jsvm.Request) (any, error) {
	return f.onScript(ctx, name, req)
}

func buildHelloBlueprint(t *testing.T) *blueprint.Blueprint {
	t.Helper()
	cfg := &config.Config{Types: map[string]*config.Type{
		"Query": {Fields: map[string]*config.Field{
			"hello": {
				TypeOf:   &config.TypeRef{Kind: config.KindNamed, Named: "String"},
				Resolver: &config.Resolver{Kind: config.ResolverConst, Const: "world"},
			},
		}},
	}}
	bp, err := blueprint.Build(config.NewModule(cfg))
	if err != nil {
		t.Fatalf("build blueprint: %v", err)
	}
	return bp
}

// buildHelloViaScript wires "hello" through a Js resolver so tests can
// observe the per-request context (outgoing gRPC metadata, request id) the
// way a real upstream call would.
func buildHelloViaScript(t *testing.T) *blueprint.Blueprint {
	t.Helper()
	cfg := &config.Config{Types: map[string]*config.Type{
		"Query": {Fields: map[string]*config.Field{
			"hello": {
				TypeOf:   &config.TypeRef{Kind: config.KindNamed, Named: "String"},
				Resolver: &config.Resolver{Kind: config.ResolverJS, JS: &config.JSResolver{Name: "greet"}},
			},
		}},
	}}
	bp, err := blueprint.Build(config.NewModule(cfg))
	if err != nil {
		t.Fatalf("build blueprint: %v", err)
	}
	return bp
}

func newTestHandler(t *testing.T, bp *blueprint.Blueprint, up resolverir.Upstream, opts ...Option) *Handler {
	t.Helper()
	h, err := New(bp, up, nil, opts...)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h
}

func TestForwardedHeaders(t *testing.T) {
	var captured metadata.MD
	up := &fakeUpstream{onScript: func(ctx context.Context, name string, req jsvm.Request) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	}}
	h := newTestHandler(t, buildHelloViaScript(t), up, WithMetadataHeaders("X-Test"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	req.Header.Set("X-Other", "nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if captured == nil || captured.Get("x-test")[0] != "abc" || len(captured.Get("x-other")) > 0 {
		t.Fatalf("metadata not propagated correctly: %v", captured)
	}
}

func TestForwardedHeadersDefaultEmpty(t *testing.T) {
	var captured metadata.MD
	up := &fakeUpstream{onScript: func(ctx context.Context, name string, req jsvm.Request) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	}}
	h := newTestHandler(t, buildHelloViaScript(t), up)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if captured != nil && len(captured.Get("x-test")) > 0 {
		t.Fatalf("header should not be forwarded by default: %v", captured)
	}
}

func TestCORSAndPreflight(t *testing.T) {
	up := &fakeUpstream{}
	h := newTestHandler(t, buildHelloBlueprint(t), up, WithCORS("*"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight missing CORS header")
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	up := &fakeUpstream{}
	h := newTestHandler(t, buildHelloBlueprint(t), up, WithMaxBodyBytes(10))

	body := bytes.NewBufferString(`{"query":"1234567890"}`)
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	var capturedMD metadata.MD
	var capturedID int64
	up := &fakeUpstream{onScript: func(ctx context.Context, name string, req jsvm.Request) (any, error) {
		capturedMD, _ = metadata.FromOutgoingContext(ctx)
		capturedID, _ = reqid.FromContext(ctx)
		return "world", nil
	}}
	h := newTestHandler(t, buildHelloViaScript(t), up)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if capturedID == 0 {
		t.Fatalf("missing request id in context")
	}
	if got := capturedMD.Get("graphql-request-id"); len(got) == 0 || got[0] != strconv.FormatInt(capturedID, 10) {
		t.Fatalf("metadata mismatch: %v id %d", capturedMD, capturedID)
	}
}

func TestIntrospectionQuery(t *testing.T) {
	h := newTestHandler(t, buildHelloBlueprint(t), &fakeUpstream{})

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ __schema { queryType { name fields { name } } } }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"hello"`)) {
		t.Fatalf("expected introspection to list the hello field, got %s", w.Body.String())
	}
}
