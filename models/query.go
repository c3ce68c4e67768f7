package models

// Operator is the kind of test a Condition applies to a field
type Operator int

const (
	OpExists Operator = iota // field is present
	OpNotIn                  // field value is none of Values
	OpEq                     // field value equals Values[0]
)

// Condition is a single filter clause on one field
type Condition struct {
	Field  string
	Op     Operator
	Values []interface{}
}

// Exists matches documents where field is present
func Exists(field string) Condition {
	return Condition{Field: field, Op: OpExists}
}

// NotIn matches documents where field is none of values. A nil value in
// values also excludes documents where the field is absent.
func NotIn(field string, values ...interface{}) Condition {
	return Condition{Field: field, Op: OpNotIn, Values: values}
}

// Eq matches documents where field equals value
func Eq(field string, value interface{}) Condition {
	return Condition{Field: field, Op: OpEq, Values: []interface{}{value}}
}

// Query describes a find: all conditions must hold, and only Projection
// fields are returned. An empty projection returns whole documents.
type Query struct {
	Filter     []Condition
	Projection []string
}
