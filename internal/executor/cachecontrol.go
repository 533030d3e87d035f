package executor

import (
	"strconv"
	"time"

	"github.com/hanpama/protograph/internal/resolverir"
)

// CacheControl is the response-wide cache policy accumulated across every
// field evaluated for one request (spec §4.H): the minimum max-age of any
// Cache(max_age, io) node that ran, downgraded to private the moment any
// field in the response passed through a Protect node (an authenticated
// response must never be cached as if it were anonymous-shareable).
type CacheControl struct {
	MaxAge  time.Duration
	Public  bool
	present bool
}

// newCacheControl starts uninitialized; the first contributing field sets
// both MaxAge and Public, afterwards only narrowing them.
func newCacheControl() *CacheControl {
	return &CacheControl{Public: true}
}

// observe folds one field's planned IR into the accumulator. This is a
// static, build-shape walk (same tree the Blueprint compiled, not the
// dynamic branch actually taken by Expr/Pipe at runtime) — a deliberate
// simplification recorded in DESIGN.md: computing the *actually executed*
// cache policy would require propagating it out of resolverir.Evaluate
// itself, which the IR's Result type does not carry.
func (c *CacheControl) observe(ir *resolverir.IR) {
	if ir == nil {
		return
	}
	resolverir.Modify(ir, func(n *resolverir.IR) *resolverir.IR {
		switch n.Kind {
		case resolverir.KindCache:
			c.present = true
			if c.MaxAge == 0 || n.CacheMaxAge < c.MaxAge {
				c.MaxAge = n.CacheMaxAge
			}
		case resolverir.KindProtect:
			c.present = true
			c.Public = false
		}
		return n
	})
}

// Header renders the standard Cache-Control header value, or "" when no
// field contributed a cache policy.
func (c *CacheControl) Header() string {
	if c == nil || !c.present {
		return ""
	}
	visibility := "public"
	if !c.Public {
		visibility = "private"
	}
	if c.MaxAge <= 0 {
		return "no-store"
	}
	return visibility + ", max-age=" + strconv.Itoa(int(c.MaxAge/time.Second))
}
