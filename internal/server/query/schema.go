package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/google/uuid"
)

// ColumnKind drives how client values are converted before binding.
type ColumnKind int

const (
	Text ColumnKind = iota
	Number
	Bool
	Timestamp
	UUID
)

// Field maps a client-facing name onto a column. Writable fields may be
// set by a patch; Managed fields are filled by the database and never
// written by stores.
type Field struct {
	Name     string
	Column   string
	Kind     ColumnKind
	Writable bool
	Managed  bool
}

// Schema is the allow-list of fields a resource exposes to queries.
// Nothing outside it ever reaches generated SQL.
type Schema struct {
	Table  string
	fields []Field
	byName map[string]Field
}

// NewSchema panics on duplicate or missing "id" fields; schemas are
// package-level declarations.
func NewSchema(table string, fields ...Field) *Schema {
	s := &Schema{Table: table, fields: fields, byName: make(map[string]Field, len(fields))}
	for _, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			panic(fmt.Sprintf("query: duplicate field %q in schema %s", f.Name, table))
		}
		s.byName[f.Name] = f
	}
	if _, ok := s.byName["id"]; !ok {
		panic(fmt.Sprintf("query: schema %s has no id field", table))
	}
	return s
}

func (s *Schema) Field(name string) (Field, error) {
	f, ok := s.byName[name]
	if !ok {
		return Field{}, common.InvalidQuery("Unknown field: %s", name)
	}
	return f, nil
}

// Fields returns the schema's fields in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Writable returns the fields a patch may touch.
func (s *Schema) Writable() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Writable {
			out = append(out, f)
		}
	}
	return out
}

// Stored returns the fields a store writes on insert and update.
func (s *Schema) Stored() []Field {
	var out []Field
	for _, f := range s.fields {
		if !f.Managed {
			out = append(out, f)
		}
	}
	return out
}

// Columns returns the column list for a projection. "id" is always
// selected so results stay addressable.
func (s *Schema) Columns(d Descriptor) ([]string, error) {
	if len(d.Fields) == 0 {
		cols := make([]string, 0, len(s.fields))
		for _, f := range s.fields {
			cols = append(cols, f.Column)
		}
		return cols, nil
	}

	cols := []string{s.byName["id"].Column}
	seen := map[string]bool{"id": true}
	for _, name := range d.Fields {
		if seen[name] {
			continue
		}
		f, err := s.Field(name)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		cols = append(cols, f.Column)
	}
	return cols, nil
}

// Where renders the filter as a conjunction with "?" placeholders.
func (s *Schema) Where(conds []Condition) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	terms := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		f, err := s.Field(c.Field)
		if err != nil {
			return "", nil, err
		}
		op, ok := sqlOps[c.Op]
		if !ok {
			return "", nil, common.InvalidQuery("Invalid filter operator %q on %s", c.Op, c.Field)
		}
		v, err := convert(f, c.Value)
		if err != nil {
			return "", nil, err
		}
		terms = append(terms, f.Column+" "+op+" ?")
		args = append(args, v)
	}
	return " WHERE " + strings.Join(terms, " AND "), args, nil
}

func (s *Schema) OrderBy(keys []SortKey) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		f, err := s.Field(k.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, f.Column+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// Select renders a complete SELECT for d using "?" placeholders; rebind
// them for the target driver.
func (s *Schema) Select(d Descriptor) (string, []any, error) {
	cols, err := s.Columns(d)
	if err != nil {
		return "", nil, err
	}
	where, args, err := s.Where(d.Filter)
	if err != nil {
		return "", nil, err
	}
	order, err := s.OrderBy(d.Sort)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.Table)
	b.WriteString(where)
	b.WriteString(order)
	if d.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, d.Limit, d.Skip)
	}
	return b.String(), args, nil
}

// Apply trims a rendered item to the projection in d.
func (s *Schema) Apply(d Descriptor, item map[string]any) {
	if len(d.Fields) == 0 {
		for _, name := range d.Exclude {
			delete(item, name)
		}
		return
	}
	keep := map[string]bool{"id": true}
	for _, name := range d.Fields {
		keep[name] = true
	}
	for k := range item {
		if !keep[k] {
			delete(item, k)
		}
	}
}

// Convert coerces a client value for field name; used for scope values
// and patches as well as filters.
func (s *Schema) Convert(name string, v any) (any, error) {
	f, err := s.Field(name)
	if err != nil {
		return nil, err
	}
	return convert(f, v)
}

func convert(f Field, v any) (any, error) {
	bad := func() error {
		return common.InvalidQuery("Invalid value for %s: %v", f.Name, v)
	}

	switch f.Kind {
	case Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil

	case Number:
		switch n := v.(type) {
		case int64, float64, int:
			return n, nil
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, nil
			}
			fl, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, bad()
			}
			return fl, nil
		}
		return nil, bad()

	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		b, err := strconv.ParseBool(fmt.Sprint(v))
		if err != nil {
			return nil, bad()
		}
		return b, nil

	case Timestamp:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed, nil
				}
			}
		}
		return nil, bad()

	case UUID:
		id, err := uuid.Parse(fmt.Sprint(v))
		if err != nil {
			return nil, bad()
		}
		return id.String(), nil
	}
	return nil, bad()
}
