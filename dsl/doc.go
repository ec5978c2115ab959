// Package dsl builds the schema trees compiled by goskemac.
//
// Overview
//   - Nodes are immutable: every builder method returns a modified copy, so a
//     node may be shared by several parents safely.
//   - Every node reports a Kind; the compiler dispatches on it and rejects
//     nodes implemented outside this package.
//   - Custom issue messages are passed as the trailing optional argument of a
//     constraint: String().Min(3, "too short").
//
// Entry points
//   - Primitives: String(), Number(), BigInt(), Boolean(), Date(), Symbol(),
//     Undefined(), Null(), Void(), Any(), Unknown(), Never(), NaN().
//   - Values: Literal(v), Enum("a", "b"), NativeEnum(map[string]any{...}).
//   - Containers: Object().Field(...), Array(elem), Tuple(items...).Rest(r),
//     Record(value), RecordOf(key, value), Map(key, value), Set(elem).
//   - Combinators: Union(...), DiscriminatedUnion(key, ...), Intersection(a, b).
//   - Wrappers: Optional, Nullable, Default, DefaultFunc, Catch, CatchFunc,
//     Branded, Readonly, Describe, Lazy.
//
// File layout (roles)
//   - node.go: Kind, Node, Children/Unwrap helpers.
//   - primitives.go: scalar schemas and their constraint lists.
//   - object.go: object shapes and unknown-key policies.
//   - collections.go: arrays, sets, tuples, records and maps.
//   - combinators.go: unions, intersections and wrappers.
//
// Example
//
//	user := dsl.Object().
//	    Field("id", dsl.String().UUID()).
//	    Field("email", dsl.String().Email()).
//	    Field("age", dsl.Optional(dsl.Number().Int().NonNegative())).
//	    Strict()
//	p, err := goskemac.Compile(user)
package dsl
