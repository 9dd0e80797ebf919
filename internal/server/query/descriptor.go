// Package query turns an untrusted query string into a validated
// Descriptor and a Descriptor into parameterized SQL. It never talks to
// a database itself.
package query

import "sort"

// Op is a comparison operator accepted from clients.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	_, ok := sqlOps[op]
	return ok
}

// Condition is one filter term. Client conditions carry the raw string;
// scope conditions set by server code may carry any value the column
// accepts.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

type SortKey struct {
	Field string
	Desc  bool
}

// Descriptor is the structured form of a list request.
type Descriptor struct {
	Filter []Condition
	Sort   []SortKey

	// Fields is the inclusion list. When empty, Exclude applies instead.
	Fields  []string
	Exclude []string

	Page  int
	Limit int // 0 means unbounded
	Skip  int
}

// Scoped returns a copy of d with conds added. A scope condition
// replaces every client condition on the same field.
func (d Descriptor) Scoped(conds ...Condition) Descriptor {
	if len(conds) == 0 {
		return d
	}
	scoped := make(map[string]bool, len(conds))
	for _, c := range conds {
		scoped[c.Field] = true
	}

	filter := make([]Condition, 0, len(d.Filter)+len(conds))
	for _, c := range d.Filter {
		if !scoped[c.Field] {
			filter = append(filter, c)
		}
	}
	filter = append(filter, conds...)
	sortConditions(filter)

	out := d
	out.Filter = filter
	return out
}

// Lookup returns the condition on field with operator op.
func (d Descriptor) Lookup(field string, op Op) (Condition, bool) {
	for _, c := range d.Filter {
		if c.Field == field && c.Op == op {
			return c, true
		}
	}
	return Condition{}, false
}

func sortConditions(cs []Condition) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Field != cs[j].Field {
			return cs[i].Field < cs[j].Field
		}
		return cs[i].Op < cs[j].Op
	})
}
