// Package discriminator decides the concrete object type of a union or
// interface value from its field shape (spec §4.I).
package discriminator

import (
	"fmt"
	"math/bits"
	"sort"
)

// Discriminator is built once at Blueprint-construction time per
// union/interface field and reused across requests (it is immutable).
type Discriminator struct {
	// types is the ordered, declared member set; index i corresponds to
	// bit i in every mask below. Order is the declaration order, used as
	// the documented tie-break (spec §4.I step 5, §9 Open Question).
	types []string

	// fieldNames lists every field considered during resolution, in a
	// fixed order so resolution is deterministic.
	fieldNames []string

	// presentedIn[field] is a bitmask of types where the field exists.
	presentedIn map[string]uint64
	// requiredIn[field] is a bitmask of types where the field is non-null.
	requiredIn map[string]uint64

	allMask uint64
}

// FieldShape describes one field on one candidate member type.
type FieldShape struct {
	Type     string
	Field    string
	Present  bool // field exists on this type's definition
	Required bool // field is non-null on this type's definition
}

// Build constructs a Discriminator for the given ordered member type names
// and their declared field shapes. shapes need only include fields that
// differ across types; fields absent from every shape entry for a type are
// treated as not present on it.
func Build(types []string, shapes []FieldShape) (*Discriminator, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("discriminator: no candidate types")
	}
	if len(types) > 64 {
		return nil, fmt.Errorf("discriminator: too many candidate types (%d > 64)", len(types))
	}
	idx := make(map[string]int, len(types))
	for i, t := range types {
		idx[t] = i
	}

	fieldSet := make(map[string]struct{})
	presented := make(map[string]uint64)
	required := make(map[string]uint64)

	for _, s := range shapes {
		i, ok := idx[s.Type]
		if !ok {
			return nil, fmt.Errorf("discriminator: shape references unknown type %q", s.Type)
		}
		fieldSet[s.Field] = struct{}{}
		if s.Present {
			presented[s.Field] |= 1 << uint(i)
		}
		if s.Required {
			required[s.Field] |= 1 << uint(i)
		}
	}

	fieldNames := make([]string, 0, len(fieldSet))
	for f := range fieldSet {
		fieldNames = append(fieldNames, f)
	}
	sort.Strings(fieldNames)

	var all uint64
	for i := range types {
		all |= 1 << uint(i)
	}

	return &Discriminator{
		types:       append([]string(nil), types...),
		fieldNames:  fieldNames,
		presentedIn: presented,
		requiredIn:  required,
		allMask:     all,
	}, nil
}

// ErrTypeResolutionFailed is returned when no candidate type survives.
type ErrTypeResolutionFailed struct {
	Types []string
}

func (e *ErrTypeResolutionFailed) Error() string {
	return fmt.Sprintf("discriminator: could not resolve concrete type among %v", e.Types)
}

// ValuePresence reports, for a concrete value, whether a named field is
// present (and if present, whether it is non-null). Implementations adapt
// the underlying value shape (JSON object, proto message, ...).
type ValuePresence interface {
	FieldPresence(field string) (present bool, nonNull bool)
}

// MapPresence adapts a map[string]any (typical JSON-literal/HTTP resolver
// result) to ValuePresence.
type MapPresence map[string]any

func (m MapPresence) FieldPresence(field string) (bool, bool) {
	v, ok := m[field]
	if !ok {
		return false, false
	}
	return true, v != nil
}

// Resolve runs the algorithm in spec §4.I: narrow the candidate set by
// field presence/nullability, erroring only when every candidate is ruled
// out; tie-break on the lowest declaration index.
func (d *Discriminator) Resolve(value ValuePresence) (string, error) {
	possible := d.allMask
	for _, field := range d.fieldNames {
		present, nonNull := value.FieldPresence(field)
		if present {
			possible &= d.presentedIn[field]
		} else {
			possible &= ^d.requiredIn[field]
		}
		_ = nonNull // nonNull is part of the required-in computation at build time
		if possible == 0 {
			return "", &ErrTypeResolutionFailed{Types: d.types}
		}
	}
	if possible == 0 {
		return "", &ErrTypeResolutionFailed{Types: d.types}
	}
	// Power-of-two → single candidate.
	if possible&(possible-1) == 0 {
		return d.types[bits.TrailingZeros64(possible)], nil
	}
	// Tie-break: lowest-index surviving type.
	return d.types[bits.TrailingZeros64(possible)], nil
}

// ResolveList maps Resolve across each element of a list value, returning
// the per-element type name list (spec §4.I "List values").
func (d *Discriminator) ResolveList(values []ValuePresence) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		t, err := d.Resolve(v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
