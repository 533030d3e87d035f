package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/cache"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/evalctx"
	eventbus "github.com/hanpama/protograph/internal/eventbus"
	events "github.com/hanpama/protograph/internal/events"
	executor "github.com/hanpama/protograph/internal/executor"
	"github.com/hanpama/protograph/internal/introspection"
	language "github.com/hanpama/protograph/internal/language"
	"github.com/hanpama/protograph/internal/planner"
	reqid "github.com/hanpama/protograph/internal/reqid"
	"github.com/hanpama/protograph/internal/resolverir"
	"google.golang.org/grpc/metadata"
)

// Handler is an http.Handler that serves one Blueprint's GraphQL endpoint.
// It parses requests, plans and runs them against the compiled Blueprint,
// and formats responses per GraphQL spec.
type Handler struct {
	bp       *blueprint.Blueprint
	exec     *executor.Executor
	intro    *introspection.Schema
	upstream resolverir.Upstream
	cache    cache.Store
	opt      Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS is a fallback CORS policy applied only when the Blueprint's
	// server config declares none.
	CORS *config.CORSConfig

	// MetadataHeaders lists HTTP headers to forward into gRPC metadata.
	// Header names are case-insensitive. Default is none.
	MetadataHeaders []string

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS = &config.CORSConfig{AllowedOrigins: origins} }
}
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = headers }
}
func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }

// New builds a Handler serving bp over upstream/store. Introspection is
// pre-built once at startup from bp (spec §3.2 "built once from a
// ConfigModule; immutable thereafter") when bp.Server.IntrospectionOn.
func New(bp *blueprint.Blueprint, upstream resolverir.Upstream, store cache.Store, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true}
	for _, f := range opts {
		f(&op)
	}
	var intro *introspection.Schema
	if bp.Server.IntrospectionOn {
		intro = introspection.BuildFromBlueprint(bp)
	}
	return &Handler{bp: bp, exec: executor.New(bp), intro: intro, upstream: upstream, cache: store, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	cors := h.corsPolicy()
	if r.Method == http.MethodOptions {
		if cors != nil {
			setCORSHeaders(w, r, cors)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	// Map configured headers into gRPC metadata, carried for downstream
	// tracing/auth propagation through the upstream transport.
	md := metadata.MD{}
	if len(h.opt.MetadataHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.MetadataHeaders))
		for _, hdr := range h.opt.MetadataHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range r.Header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md["graphql-request-id"] = []string{strconv.FormatInt(rid, 10)}
	ctx = metadata.NewOutgoingContext(ctx, md)

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Error() == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(berr.Error()), h.opt.Pretty)
		return
	}

	if cors != nil {
		setCORSHeaders(w, r, cors)
	}

	if batch != nil {
		out := make([]any, len(batch))
		for i := range batch {
			out[i] = h.executeOne(ctx, w, batch[i])
		}
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	res := h.executeOne(ctx, w, req)
	writeJSON(w, status, res, h.opt.Pretty)
}

func (h *Handler) corsPolicy() *config.CORSConfig {
	if h.bp.Server.CORS != nil {
		return h.bp.Server.CORS
	}
	return h.opt.CORS
}

// executeOne plans and runs a single GraphQL request. Introspection-only
// selections (tooling commonly sends __schema/__type standalone) are
// answered directly from the pre-built introspection.Schema instead of
// going through planner.Plan/executor.Execute, since the Blueprint's
// field index has no entries for the meta-schema's own types.
func (h *Handler) executeOne(ctx context.Context, w http.ResponseWriter, req GraphQLRequest) any {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return errorResponse(err.Error())
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	if opDef == nil {
		return errorResponse("no operation found matching operationName")
	}

	if h.intro != nil && opDef.Operation == language.Query && introspection.IsIntrospectionQuery(opDef.SelectionSet) {
		data, errs := introspection.Execute(h.intro, opDef.SelectionSet, req.Variables)
		out := specResult{Data: data}
		for _, e := range errs {
			out.Errors = append(out.Errors, specError{Message: e})
		}
		return out
	}

	plan, err := planner.Plan(h.bp, doc, req.OperationName, req.Variables)
	if err != nil {
		return errorResponse(err.Error())
	}

	reqCtx := &evalctx.RequestContext{
		Ctx:       ctx,
		Headers:   lowercaseHeaders(req.headers),
		Variables: plan.Variables,
	}
	env := &resolverir.Env{
		Upstream:             h.upstream,
		Cache:                h.cache,
		Auth:                 h.bp.Server.Auth,
		Loaders:              resolverir.NewLoaderRegistry(),
		Batch:                h.bp.Upstream.Batch,
		CacheHeaderAllowlist: h.bp.Upstream.CacheHeaderAllowlist,
	}

	result := h.exec.Execute(ctx, env, plan, doc, reqCtx, req.OperationName, nil)
	if h.bp.Upstream.EnableCacheControl {
		if header := result.CacheControl.Header(); header != "" {
			w.Header().Set("Cache-Control", header)
		}
	}
	return toSpecResult(result)
}

func lowercaseHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	return out
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`

	headers http.Header
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, errMissingQuery
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, errInvalidVariables
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op, headers: r.Header}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, errReadBody
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, errBodyTooLarge
		}

		// Try array (batch)
		if len(body) > 0 && body[0] == '[' {
			var arr []GraphQLRequest
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, errInvalidJSON
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, errEmptyBatch
			}
			for i := range arr {
				arr[i].headers = r.Header
				if arr[i].Variables == nil {
					arr[i].Variables = map[string]any{}
				}
			}
			return GraphQLRequest{}, arr, nil
		}
		// Single
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, errInvalidJSON
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, errMissingQuery
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		req.headers = r.Header
		return req, nil, nil
	}

	return GraphQLRequest{}, nil, errUnsupportedContentType
}

// ------------------ Response formatting ------------------

type specLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type specError struct {
	Message    string         `json:"message"`
	Locations  []specLocation `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type specResult struct {
	Data   any         `json:"data"`
	Errors []specError `json:"errors,omitempty"`
}

func errorResponse(message string) specResult {
	return specResult{Errors: []specError{{Message: message}}}
}

func toSpecResult(res *executor.ExecutionResult) specResult {
	out := specResult{Data: res.Data}
	if len(res.Errors) == 0 {
		return out
	}
	out.Errors = make([]specError, len(res.Errors))
	for i, e := range res.Errors {
		se := specError{Message: e.Message, Extensions: e.Extensions}
		if len(e.Path) > 0 {
			se.Path = make([]any, len(e.Path))
			for j, pe := range e.Path {
				se.Path[j] = pe
			}
		}
		out.Errors[i] = se
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

var (
	errMissingQuery           = errors.New("missing 'query'")
	errInvalidVariables       = errors.New("invalid 'variables' JSON")
	errReadBody               = errors.New("failed to read body")
	errBodyTooLarge           = errors.New(errBodyTooLargeMessage)
	errInvalidJSON            = errors.New("invalid JSON")
	errEmptyBatch             = errors.New("empty batch")
	errUnsupportedContentType = errors.New("unsupported Content-Type")
)

func setCORSHeaders(w http.ResponseWriter, r *http.Request, cors *config.CORSConfig) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range cors.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(cors.AllowedOrigins, "*") && !cors.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if cors.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if r.Method == http.MethodOptions {
		headers := cors.AllowedHeaders
		if len(headers) == 0 {
			if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
				w.Header().Set("Access-Control-Allow-Headers", hdr)
			}
		} else {
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
		}
		methods := cors.AllowedMethods
		if len(methods) == 0 {
			methods = []string{"GET", "POST", "OPTIONS"}
		}
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
		if cors.MaxAgeSeconds > 0 {
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cors.MaxAgeSeconds))
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	if accept == "" {
		return false
	}
	for _, p := range strings.Split(accept, ",") {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}

// graphiqlPage is a minimal static GraphiQL IDE shell served over a CDN
// build, used only when Options.GraphiQL is enabled and the request looks
// like a browser navigation rather than an API call.
var graphiqlPage = []byte(`<!DOCTYPE html>
<html>
<head>
  <title>protograph</title>
  <style>body { margin: 0; }</style>
  <link rel="stylesheet" href="https://unpkg.com/graphiql/graphiql.min.css" />
</head>
<body>
  <div id="graphiql" style="height: 100vh;"></div>
  <script src="https://unpkg.com/react/umd/react.production.min.js"></script>
  <script src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"></script>
  <script src="https://unpkg.com/graphiql/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: window.location.pathname });
    ReactDOM.render(
      React.createElement(GraphiQL, { fetcher: fetcher }),
      document.getElementById('graphiql'),
    );
  </script>
</body>
</html>
`)
