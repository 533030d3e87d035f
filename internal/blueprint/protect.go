package blueprint

import (
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/resolverir"
)

// applyProtection wraps a compiled field IR in a Protect combinator when
// either the owning type or the field itself names auth providers (spec
// §4.A "Protect", §4.E "update_protected"). Provider IDs are the union of
// type-level and field-level declarations, deduplicated and ordered by
// first occurrence so Blueprint construction stays deterministic.
func applyProtection(typeProtected, fieldProtected []string, ir *resolverir.IR) *resolverir.IR {
	ids := mergeProviderIDs(typeProtected, fieldProtected)
	if len(ids) == 0 {
		return ir
	}
	return resolverir.Protect(ids, ir)
}

func mergeProviderIDs(sets ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, set := range sets {
		for _, id := range set {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// checkNotProtectedInput rejects @protected on an input-position type
// (spec §4.E "update_protected ... erroring if an input type is marked
// protected" — a guard that belongs to request-bound output resolution,
// never to argument/input decoding).
func checkNotProtectedInput(b *builder, cache *config.ModuleCache, typeName string, t *config.Type) {
	if len(t.Protected) == 0 {
		return
	}
	if cache.InputTypes[typeName] {
		b.fail("input type cannot be @protected", typeName, "")
	}
}
