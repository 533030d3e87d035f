package resolverir

import (
	"encoding/json"
	"fmt"

	"github.com/hanpama/protograph/internal/evalctx"
)

// cacheKeyFor derives the stable hash a Cache(max_age, io) node uses to
// consult env.Cache, per protocol (spec §4.C "Cache key"). Headers only
// participate through the explicit allowlist so auth/tracing headers never
// fragment the cache.
func cacheKeyFor(ctx evalctx.Context, io *IONode, headerAllowlist []string) (uint64, bool) {
	switch io.Kind {
	case IOHttp:
		method, url, body, err := io.HTTP.CacheKey(ctx, headerAllowlist)
		if err != nil {
			return 0, false
		}
		return fnv64(method + "\x00" + url + "\x00" + string(body)), true
	case IOGrpc:
		req, err := io.GRPC.Render(ctx)
		if err != nil {
			return 0, false
		}
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return 0, false
		}
		return fnv64(io.GRPC.Operation.MethodName + "\x00" + req.URL + "\x00" + string(raw)), true
	case IOGraphQL:
		req, err := io.GraphQL.Render(ctx)
		if err != nil {
			return 0, false
		}
		raw, err := json.Marshal(req.Args)
		if err != nil {
			return 0, false
		}
		return fnv64(req.FieldName + "\x00" + req.URL + "\x00" + string(raw)), true
	default:
		// Script results are not cached: they are arbitrary Go/JS closures
		// over request-local state, not idempotent remote calls.
		return 0, false
	}
}

func fnv64(s string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func decodeCachedValue(raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("resolverir: decoding cached value: %w", err)
	}
	return v, nil
}

func encodeCachedValue(v any) ([]byte, error) {
	return json.Marshal(v)
}
