// Package executor evaluates an already-built planner.OperationPlan against
// a Blueprint's compiled resolverir.IR and assembles a GraphQL response
// (spec §4.H).
//
// # Overview
//
// Execution walks the plan's nested Children view top-down:
//   - Each selection set's fields are evaluated concurrently (one goroutine
//     per field), not BFS'd level-by-level: resolverir.Evaluate is a single
//     blocking call with no separate sync/async split to queue a batch
//     against, so the only way a dataloader.Loader.Load call can land in the
//     same batching window as a sibling field's is for both to be in flight
//     at once.
//   - A field marked IsConst — the "Check const" post-transform already
//     rendered its static IR at plan time — uses Field.ConstValue directly
//     and skips Evaluate entirely.
//   - completeValue implements the usual GraphQL completion rules (Non-Null
//     unwrap, list recursion, scalar/enum pass-through, object
//     sub-selection, abstract-type resolution) against blueprint.Definition
//     and config.TypeRef rather than a schema.Type/TypeRef pair.
//
// # Non-Null propagation
//
// completion.abort plays the role the teacher's nil-map return played in its
// executeSelectionSet, but scoped one level tighter: completeValue itself
// demotes an abort back into an explicit null the moment it returns through
// a layer whose own declared type isn't Non-Null. A Non-Null violation deep
// under a nullable field therefore stops climbing at the nearest nullable
// ancestor — not at the root — exactly as if that ancestor's
// executeSelectionSet call had been the one to see len(path) > 0 and write
// null rather than propagate. Only a chain of Non-Null wrappers keeps an
// abort alive long enough to reach evaluateSelectionSet, where it either
// re-aborts the enclosing (nested) selection set or, at the true root,
// is written as a plain null for that one field while its siblings still
// complete. No separate bubble flag or tombstone-path map is needed, because
// this executor recurses directly instead of deferring work into a
// depth-wise async queue that would otherwise need an external way to know
// which in-flight tasks to drop.
//
// # Abstract types
//
// An Interface/Union-typed field's selection can't be flattened at plan
// time, because the concrete type is only known once the field's
// Discriminate node runs against a resolved value (spec §4.I). Such fields
// carry a Field.RawSelection instead of Children; once resolverir.Evaluate
// tags the resolved value with its concrete type name, completeAbstractValue
// calls planner.ExpandSelection to re-collect RawSelection against that
// concrete type, continuing the plan's shared field-ID sequence via a
// mutex-guarded counter (concurrent discriminated list elements can expand
// at the same time).
//
// # Cache-Control
//
// CacheControl.observe walks each planned field's compiled IR once,
// statically, computing the minimum max_age across any Cache node and
// downgrading to private if any Protect node is present — the response-wide
// policy spec §4.H describes. This runs once per request over the plan
// rather than per evaluated branch, since resolverir.Result carries no cache
// metadata out of Evaluate for the executor to fold in dynamically.
//
// # Errors
//
// A *resolverir.Error returned from Evaluate carries a closed ErrorKind
// (spec §4.A); graphQLErrorFromResolverError maps it onto a GraphQLError
// with Extensions["code"] set to the kind's name, plus gRPC status or
// validation-message detail where the kind carries it. A non-null field
// whose Evaluate call errors aborts exactly like a non-null field whose
// completed value is nullish.
package executor
