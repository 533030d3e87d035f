package planner

import (
	"github.com/hanpama/protograph/internal/language"
)

// collectedField groups every occurrence of one response name (spec §4.G
// step 3's implicit field-merging, grounded on the teacher's
// executor/fields.go collectedFieldMap).
type collectedField struct {
	ResponseName string
	Nodes        []*language.Field
}

type collectedFieldMap struct {
	order []collectedField
	index map[string]int
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{index: map[string]int{}}
}

func (c *collectedFieldMap) add(responseName string, f *language.Field) {
	if i, ok := c.index[responseName]; ok {
		c.order[i].Nodes = append(c.order[i].Nodes, f)
		return
	}
	c.index[responseName] = len(c.order)
	c.order = append(c.order, collectedField{ResponseName: responseName, Nodes: []*language.Field{f}})
}

// collectFields flattens a selection set for one concrete type, inlining
// fragments and honoring @skip/@include (spec §4.G step 6 "Skip").
// Grounded on the teacher's executor/fields.go collectFieldsImpl.
func collectFields(doc *language.QueryDocument, variables map[string]any, typeName string, sel language.SelectionSet) *collectedFieldMap {
	out := newCollectedFieldMap()
	visited := map[string]bool{}
	collectFieldsImpl(doc, variables, typeName, sel, out, visited)
	return out
}

func collectFieldsImpl(doc *language.QueryDocument, variables map[string]any, typeName string, sel language.SelectionSet, out *collectedFieldMap, visited map[string]bool) {
	for _, s := range sel {
		switch node := s.(type) {
		case *language.Field:
			if !shouldInclude(node.Directives, variables) {
				continue
			}
			name := node.Alias
			if name == "" {
				name = node.Name
			}
			out.add(name, node)

		case *language.InlineFragment:
			if !shouldInclude(node.Directives, variables) {
				continue
			}
			if node.TypeCondition != "" && node.TypeCondition != typeName {
				continue
			}
			collectFieldsImpl(doc, variables, typeName, node.SelectionSet, out, visited)

		case *language.FragmentSpread:
			if !shouldInclude(node.Directives, variables) {
				continue
			}
			if visited[node.Name] {
				continue
			}
			visited[node.Name] = true
			def := doc.Fragments.ForName(node.Name)
			if def == nil {
				continue
			}
			if def.TypeCondition != "" && def.TypeCondition != typeName {
				continue
			}
			if !shouldInclude(def.Directives, variables) {
				continue
			}
			collectFieldsImpl(doc, variables, typeName, def.SelectionSet, out, visited)
		}
	}
}

// shouldInclude evaluates @skip/@include against the already-bound
// variable set (spec §4.G "Skip" post-transform).
func shouldInclude(directives language.DirectiveList, variables map[string]any) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveIfArg(skip, variables); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveIfArg(include, variables); ok && !v {
			return false
		}
	}
	return true
}

func directiveIfArg(d *language.Directive, variables map[string]any) (bool, bool) {
	for _, arg := range d.Arguments {
		if arg.Name != "if" {
			continue
		}
		v := valueFromASTWithVars(arg.Value, variables)
		b, ok := v.(bool)
		return b, ok
	}
	return false, false
}
