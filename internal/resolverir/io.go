package resolverir

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hanpama/protograph/internal/dataloader"
	"github.com/hanpama/protograph/internal/evalctx"
	"github.com/hanpama/protograph/internal/jsvm"
	"github.com/hanpama/protograph/internal/reqtemplate"
	"google.golang.org/grpc/status"
)

// evaluateIO performs the protocol call an IO node describes, routing
// through a per-request DataLoader when the node declares group_by (spec
// §4.C). Nodes without group_by call straight through to env.Upstream.
func evaluateIO(ctx evalctx.Context, env *Env, node *IONode) (any, error) {
	if len(node.GroupBy) == 0 {
		return callIOOnce(ctx, env, node)
	}

	key, _ := ctx.PathString(node.GroupBy)
	loader := env.Loaders.Get(node, func() *dataloader.Loader {
		return dataloader.New(buildBatchFunc(ctx, env, node), dataloader.Config{
			Delay:        env.Batch.Delay,
			MaxBatchSize: env.Batch.MaxBatchSize,
			Dedupe:       env.Batch.Dedupe,
		})
	})
	return loader.Load(ctx.Request.Ctx, key)
}

// callIOOnce dispatches a single, unbatched call for node's protocol.
func callIOOnce(ctx evalctx.Context, env *Env, node *IONode) (any, error) {
	switch node.Kind {
	case IOHttp:
		req, err := node.HTTP.Render(ctx)
		if err != nil {
			return nil, OtherError("rendering HTTP request", err)
		}
		resp, err := env.Upstream.CallHTTP(ctx.Request.Ctx, req)
		if err != nil {
			return nil, IOError("HTTP call failed", err)
		}
		return decodeHTTPBody(resp)
	case IOGrpc:
		req, err := node.GRPC.Render(ctx)
		if err != nil {
			return nil, OtherError("rendering gRPC request", err)
		}
		out, err := env.Upstream.CallGRPC(ctx.Request.Ctx, node.GRPC.Operation, req)
		if err != nil {
			return nil, classifyGRPCError(err)
		}
		return out, nil
	case IOGraphQL:
		req, err := node.GraphQL.Render(ctx)
		if err != nil {
			return nil, OtherError("rendering GraphQL request", err)
		}
		doc := reqtemplate.BuildDocument(node.GraphQL.OperationType, []*reqtemplate.GraphQLRequest{req})
		out, err := env.Upstream.CallGraphQL(ctx.Request.Ctx, node.GraphQL.OperationType, req.URL, req.Headers, doc)
		if err != nil {
			return nil, IOError("GraphQL call failed", err)
		}
		return out["f0"], nil
	case IOScript:
		out, err := env.Upstream.CallScript(ctx.Request.Ctx, node.Script.Name, jsvm.Request{
			Args:    ctx.GraphQL.Args,
			Value:   ctx.GraphQL.Value,
			Headers: ctx.Request.Headers,
		})
		if err != nil {
			return nil, OtherError("script call failed", err)
		}
		return out, nil
	default:
		return nil, OtherError(fmt.Sprintf("unknown IO kind %d", node.Kind), nil)
	}
}

func decodeHTTPBody(resp *UpstreamHTTPResponse) (any, error) {
	if resp.Status >= 400 {
		return nil, IOError(fmt.Sprintf("upstream returned status %d", resp.Status), nil)
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, DeserializeError("response body is not valid JSON", err)
	}
	return out, nil
}

// classifyGRPCError turns a grpc-go status error into the IR's structured
// GRPCError (spec §4.A "GRPCError{code, message, details}"), grounded on
// internal/grpctp's status.Code(err) usage for client-side classification.
func classifyGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return IOError("gRPC call failed", err)
	}
	details := make(map[string]any, len(st.Details()))
	for i, d := range st.Details() {
		details[fmt.Sprintf("detail_%d", i)] = d
	}
	return GRPCError(st.Code().String(), st.Message(), details)
}

// buildBatchFunc constructs the BatchFunc a group_by Loader runs once per
// window. seedCtx supplies the request-scoped parts (headers, env,
// variables) shared by every call in the window; only the group_by value
// itself differs per key (spec §4.C steps 1-4).
func buildBatchFunc(seedCtx evalctx.Context, env *Env, node *IONode) dataloader.BatchFunc {
	switch node.Kind {
	case IOHttp:
		return func(ctx context.Context, keys []string) []dataloader.Result {
			return batchHTTP(ctx, env, node, seedCtx, keys)
		}
	default:
		// gRPC, GraphQL, and script upstreams are batched here for
		// windowing/dedup only: each key still issues its own call,
		// concurrently, rather than a protocol-level merged call. True
		// wire-level merging for these protocols needs upstream-specific
		// request shapes (e.g. a repeated-field gRPC request) that the
		// generic IONode template doesn't carry; HTTP's comma-joined
		// query-param convention is the one merge strategy common enough
		// to implement generically.
		return func(ctx context.Context, keys []string) []dataloader.Result {
			return batchIndividually(ctx, env, node, seedCtx, keys)
		}
	}
}

func batchIndividually(ctx context.Context, env *Env, node *IONode, seedCtx evalctx.Context, keys []string) []dataloader.Result {
	out := make([]dataloader.Result, len(keys))
	type outcome struct {
		idx int
		v   any
		err error
	}
	ch := make(chan outcome, len(keys))
	for i, key := range keys {
		go func(i int, key string) {
			itemCtx := seedCtx.WithValue(keyedValue(node.GroupBy, key))
			v, err := callIOOnce(itemCtx, env, node)
			ch <- outcome{idx: i, v: v, err: err}
		}(i, key)
	}
	for range keys {
		o := <-ch
		out[o.idx] = dataloader.Result{Value: o.v, Err: o.err}
	}
	return out
}

// keyedValue rebuilds a minimal parent-value shape carrying the batch key at
// the path group_by names, so a template referencing {{value.<group_by>}}
// still resolves inside a batched call.
func keyedValue(groupBy []string, key string) map[string]any {
	if len(groupBy) == 0 {
		return map[string]any{"id": key}
	}
	root := make(map[string]any)
	cur := root
	for i, seg := range groupBy {
		if i == len(groupBy)-1 {
			cur[seg] = key
			break
		}
		next := make(map[string]any)
		cur[seg] = next
		cur = next
	}
	return root
}

// batchHTTP merges every key into a single comma-joined query parameter,
// issues one upstream call, then splits the response array back out per key
// by matching the group_by field name on each response item (spec §4.C
// step 3, the common "WHERE id IN (...)" batching idiom).
func batchHTTP(ctx context.Context, env *Env, node *IONode, seedCtx evalctx.Context, keys []string) []dataloader.Result {
	groupField := ""
	if len(node.GroupBy) > 0 {
		groupField = node.GroupBy[len(node.GroupBy)-1]
	}

	batchedCtx := seedCtx.WithValue(map[string]any{groupField: strings.Join(keys, ",")})
	req, err := node.HTTP.Render(batchedCtx)
	if err != nil {
		return allFailed(len(keys), OtherError("rendering batched HTTP request", err))
	}
	resp, err := env.Upstream.CallHTTP(ctx, req)
	if err != nil {
		return allFailed(len(keys), IOError("HTTP batch call failed", err))
	}
	decoded, err := decodeHTTPBody(resp)
	if err != nil {
		return allFailed(len(keys), err)
	}

	items, ok := decoded.([]any)
	if !ok {
		return allFailed(len(keys), DeserializeError("batched HTTP response is not a JSON array", nil))
	}

	byKey := make(map[string]any, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok || groupField == "" {
			continue
		}
		if v, ok := obj[groupField]; ok {
			byKey[fmt.Sprint(v)] = item
		}
	}

	out := make([]dataloader.Result, len(keys))
	for i, key := range keys {
		if v, ok := byKey[key]; ok {
			out[i] = dataloader.Result{Value: v}
		} else {
			out[i] = dataloader.Result{Value: nil}
		}
	}
	return out
}

func allFailed(n int, err error) []dataloader.Result {
	out := make([]dataloader.Result, n)
	for i := range out {
		out[i] = dataloader.Result{Err: err}
	}
	return out
}
