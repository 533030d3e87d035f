package blueprint

import (
	"time"

	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/resolverir"
)

// buildUpstreamInfo folds the author-facing UpstreamConfig into the
// resolved defaults the executor/DataLoader wiring reads per request (spec
// §4.E "apply_batching": batching is an upstream-wide default every
// group_by IO node uses unless it overrides the window itself).
func buildUpstreamInfo(u *config.UpstreamConfig) UpstreamInfo {
	if u == nil {
		return UpstreamInfo{Batch: resolverir.BatchPolicy{Delay: 16 * time.Millisecond, MaxBatchSize: 100}}
	}
	delay := time.Duration(u.BatchDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 16 * time.Millisecond
	}
	maxSize := u.BatchMaxSize
	if maxSize <= 0 {
		maxSize = 100
	}
	return UpstreamInfo{
		Batch: resolverir.BatchPolicy{
			Delay:        delay,
			MaxBatchSize: maxSize,
			Dedupe:       u.BatchDedupe,
		},
		CacheHeaderAllowlist: u.CacheHeaderAllow,
		EnableCacheControl:   u.EnableCacheControl,
	}
}
