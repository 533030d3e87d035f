package resolverir

import (
	"sync"
	"time"

	"github.com/hanpama/protograph/internal/auth"
	"github.com/hanpama/protograph/internal/cache"
	"github.com/hanpama/protograph/internal/dataloader"
)

// BatchPolicy mirrors the windowing parameters a Blueprint attaches to every
// group_by IO node (spec §4.C).
type BatchPolicy struct {
	Delay        time.Duration
	MaxBatchSize int
	Dedupe       bool
}

// LoaderRegistry holds the per-request DataLoader instances keyed by the IO
// node identity that owns them. Exactly one Loader exists per IO node per
// request, built lazily on first use and discarded with the request (spec
// §9 "DataLoader as a per-request singleton").
type LoaderRegistry struct {
	mu      sync.Mutex
	loaders map[*IONode]*dataloader.Loader
}

// NewLoaderRegistry constructs an empty, request-scoped registry.
func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{loaders: make(map[*IONode]*dataloader.Loader)}
}

// Get returns the Loader for node, constructing it via build on first use.
func (r *LoaderRegistry) Get(node *IONode, build func() *dataloader.Loader) *dataloader.Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loaders[node]; ok {
		return l
	}
	l := build()
	r.loaders[node] = l
	return l
}

// Env bundles everything Evaluate needs beyond the per-field evalctx.Context:
// the upstream transport seam, the shared entity cache, the resolved auth
// providers, the per-request loader registry, and the batching policy a
// Blueprint compiled for group_by nodes.
type Env struct {
	Upstream Upstream
	Cache    cache.Store
	Auth     map[string]auth.Provider
	Loaders  *LoaderRegistry
	Batch    BatchPolicy

	// CacheHeaderAllowlist names the request headers, if any, that
	// participate in a Cache(max_age, io) node's key (spec §4.C "Cache
	// key"). Most headers (auth, tracing) are excluded by omission.
	CacheHeaderAllowlist []string
}
