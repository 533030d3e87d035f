package blueprint

import (
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/discriminator"
	"github.com/hanpama/protograph/internal/resolverir"
)

// buildDiscriminator constructs a discriminator.Discriminator for a union
// or interface's member types, using only the fields whose presence or
// non-null-ness actually differs between members (spec §4.I "a field
// shape comparison narrows the candidate set"; including identical fields
// would never narrow anything, so they are skipped).
func buildDiscriminator(module *config.ConfigModule, members []string) (*discriminator.Discriminator, error) {
	fieldNames := make(map[string]bool)
	for _, m := range members {
		t, ok := module.Config.Types[m]
		if !ok {
			continue
		}
		for name := range t.Fields {
			fieldNames[name] = true
		}
	}

	var shapes []discriminator.FieldShape
	for field := range fieldNames {
		if !fieldDiffers(module, members, field) {
			continue
		}
		for _, m := range members {
			t, ok := module.Config.Types[m]
			if !ok {
				continue
			}
			f, present := t.Fields[field]
			shapes = append(shapes, discriminator.FieldShape{
				Type:     m,
				Field:    field,
				Present:  present,
				Required: present && f.TypeOf.IsNonNull(),
			})
		}
	}
	return discriminator.Build(members, shapes)
}

func fieldDiffers(module *config.ConfigModule, members []string, field string) bool {
	var firstPresent bool
	var firstRequired bool
	for i, m := range members {
		t, ok := module.Config.Types[m]
		present, required := false, false
		if ok {
			if f, has := t.Fields[field]; has {
				present = true
				required = f.TypeOf.IsNonNull()
			}
		}
		if i == 0 {
			firstPresent, firstRequired = present, required
			continue
		}
		if present != firstPresent || required != firstRequired {
			return true
		}
	}
	return false
}

// applyDiscriminator wraps a union/interface-returning field's IR in a
// Discriminate combinator (spec §4.E "update_union_resolver").
func applyDiscriminator(d *discriminator.Discriminator, ir *resolverir.IR) *resolverir.IR {
	if d == nil {
		return ir
	}
	return resolverir.Discriminate(d, ir)
}
