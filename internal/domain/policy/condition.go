package policy

// Op identifies a condition node variant. The condition tree is a closed sum
// type with an explicit evaluator switch, so it serializes directly to and
// from the stored JSON representation.
type Op string

const (
	OpAll    Op = "all"
	OpAny    Op = "any"
	OpNot    Op = "not"
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpIn     Op = "in"
	OpRegex  Op = "regex"
	OpExists Op = "exists"
)

// Condition is one node of a policy's condition tree. Which fields are
// meaningful depends on Op:
//
//   - all/any: Children
//   - not: Child
//   - eq/neq/lt/lte/gt/gte: Field + Value
//   - in: Field + Values
//   - regex: Field + Value (the pattern)
//   - exists: Field
//
// Trees are immutable once attached to a policy.
type Condition struct {
	Op       Op          `json:"op"`
	Children []Condition `json:"children,omitempty"`
	Child    *Condition  `json:"child,omitempty"`
	Field    string      `json:"field,omitempty"`
	Value    any         `json:"value,omitempty"`
	Values   []any       `json:"values,omitempty"`
}

// All builds a conjunction node. An empty conjunction is vacuously true.
func All(children ...Condition) Condition {
	return Condition{Op: OpAll, Children: children}
}

// Any builds a disjunction node. An empty disjunction is false.
func Any(children ...Condition) Condition {
	return Condition{Op: OpAny, Children: children}
}

// Not builds a negation node.
func Not(child Condition) Condition {
	return Condition{Op: OpNot, Child: &child}
}

// Eq builds an equality leaf.
func Eq(field string, value any) Condition {
	return Condition{Op: OpEq, Field: field, Value: value}
}

// Neq builds an inequality leaf.
func Neq(field string, value any) Condition {
	return Condition{Op: OpNeq, Field: field, Value: value}
}

// Lt builds a less-than leaf.
func Lt(field string, value any) Condition {
	return Condition{Op: OpLt, Field: field, Value: value}
}

// Lte builds a less-than-or-equal leaf.
func Lte(field string, value any) Condition {
	return Condition{Op: OpLte, Field: field, Value: value}
}

// Gt builds a greater-than leaf.
func Gt(field string, value any) Condition {
	return Condition{Op: OpGt, Field: field, Value: value}
}

// Gte builds a greater-than-or-equal leaf.
func Gte(field string, value any) Condition {
	return Condition{Op: OpGte, Field: field, Value: value}
}

// In builds a set-membership leaf.
func In(field string, values ...any) Condition {
	return Condition{Op: OpIn, Field: field, Values: values}
}

// Regex builds a pattern-match leaf. The pattern is validated when the policy
// is created or updated, never at evaluation time.
func Regex(field, pattern string) Condition {
	return Condition{Op: OpRegex, Field: field, Value: pattern}
}

// Exists builds a presence leaf. This is the only operator that distinguishes
// an absent field from a present one.
func Exists(field string) Condition {
	return Condition{Op: OpExists, Field: field}
}
