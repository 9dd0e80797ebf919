package resources

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/dbx"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Expander fills a named relation on a loaded document.
type Expander[T any] func(ctx context.Context, db sqlx.QueryerContext, item *T) error

type StoreOption[T any] func(*PostgresStore[T])

// WithExpander registers a relation that FindByID callers may request.
func WithExpander[T any](name string, fn Expander[T]) StoreOption[T] {
	return func(s *PostgresStore[T]) { s.expanders[name] = fn }
}

// WithDefaultExpand names relations filled on every read.
func WithDefaultExpand[T any](names ...string) StoreOption[T] {
	return func(s *PostgresStore[T]) { s.defaults = append(s.defaults, names...) }
}

// PostgresStore is a Repository over one table. T must carry db tags
// matching the schema's columns and json tags matching its field names.
type PostgresStore[T any] struct {
	db        *sqlx.DB
	schema    *query.Schema
	expanders map[string]Expander[T]
	defaults  []string

	selectByID string
	insert     string
	update     string
	remove     string
}

func NewPostgresStore[T any](db *sqlx.DB, schema *query.Schema, opts ...StoreOption[T]) *PostgresStore[T] {
	s := &PostgresStore[T]{db: db, schema: schema, expanders: map[string]Expander[T]{}}
	for _, opt := range opts {
		opt(s)
	}

	all, _ := schema.Columns(query.Descriptor{})
	cols := strings.Join(all, ", ")

	var names, binds, sets []string
	for _, f := range schema.Stored() {
		names = append(names, f.Column)
		binds = append(binds, ":"+f.Column)
		sets = append(sets, f.Column+" = :"+f.Column)
	}

	s.selectByID = db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", cols, schema.Table))
	s.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		schema.Table, strings.Join(names, ", "), strings.Join(binds, ", "), cols)
	s.update = fmt.Sprintf("UPDATE %s SET %s, version = version + 1 WHERE id = :id RETURNING %s",
		schema.Table, strings.Join(sets, ", "), cols)
	s.remove = db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", schema.Table))
	return s
}

func (s *PostgresStore[T]) Schema() *query.Schema { return s.schema }

func (s *PostgresStore[T]) Create(ctx context.Context, item *T) (*T, error) {
	if err := check(item); err != nil {
		return nil, err
	}

	out := new(T)
	if err := namedGet(ctx, s.db, s.insert, item, out); err != nil {
		return nil, storeError("insert into "+s.schema.Table, err)
	}
	return out, nil
}

func (s *PostgresStore[T]) FindByID(ctx context.Context, id string, expand ...string) (*T, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrRecordNotFound
	}

	item := new(T)
	if err := s.db.GetContext(ctx, item, s.selectByID, id); err != nil {
		return nil, storeError("select from "+s.schema.Table, err)
	}
	if err := s.expand(ctx, item, append(append([]string(nil), s.defaults...), expand...)); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PostgresStore[T]) Find(ctx context.Context, d query.Descriptor) ([]*T, error) {
	q, args, err := s.schema.Select(d)
	if err != nil {
		return nil, err
	}

	items := []*T{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(q), args...); err != nil {
		return nil, storeError("select from "+s.schema.Table, err)
	}
	for _, item := range items {
		if err := s.expand(ctx, item, s.defaults); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// UpdateByID locks the row, merges the writable part of patch into it,
// re-runs validation and writes it back with a bumped version.
func (s *PostgresStore[T]) UpdateByID(ctx context.Context, id string, patch map[string]any) (*T, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrRecordNotFound
	}

	out := new(T)
	err := dbx.WithTxx(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		item := new(T)
		if err := tx.GetContext(ctx, item, s.selectByID+" FOR UPDATE", id); err != nil {
			return storeError("select from "+s.schema.Table, err)
		}
		if err := s.merge(item, patch); err != nil {
			return err
		}
		if err := check(item); err != nil {
			return err
		}
		return namedGet(ctx, tx, s.update, item, out)
	})
	if err != nil {
		if common.IsOperational(err) || errors.Is(err, common.ErrRecordNotFound) {
			return nil, err
		}
		return nil, storeError("update "+s.schema.Table, err)
	}
	if err := s.expand(ctx, out, s.defaults); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore[T]) DeleteByID(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrRecordNotFound
	}

	res, err := s.db.ExecContext(ctx, s.remove, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.schema.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.schema.Table, err)
	}
	if n == 0 {
		return common.ErrRecordNotFound
	}
	return nil
}

// merge applies the writable keys of patch through the model's JSON
// mapping. Unknown and read-only keys are ignored.
func (s *PostgresStore[T]) merge(item *T, patch map[string]any) error {
	writable := make(map[string]any, len(patch))
	for _, f := range s.schema.Writable() {
		if v, ok := patch[f.Name]; ok {
			writable[f.Name] = v
		}
	}
	if len(writable) == 0 {
		return nil
	}

	b, err := json.Marshal(writable)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	if err := json.Unmarshal(b, item); err != nil {
		return common.ValidationFailed("Invalid input data. "+err.Error(), err)
	}
	return nil
}

func (s *PostgresStore[T]) expand(ctx context.Context, item *T, names []string) error {
	for _, name := range names {
		fn, ok := s.expanders[name]
		if !ok {
			return fmt.Errorf("%s: unknown relation %q", s.schema.Table, name)
		}
		if err := fn(ctx, s.db, item); err != nil {
			return fmt.Errorf("expand %s.%s: %w", s.schema.Table, name, err)
		}
	}
	return nil
}

func check[T any](item *T) error {
	if p, ok := any(item).(Preparer); ok {
		p.Prepare()
	}
	if v, ok := any(item).(Validator); ok {
		return v.Validate()
	}
	return nil
}

// namedGet runs a named statement expected to return exactly one row.
func namedGet(ctx context.Context, e sqlx.ExtContext, q string, arg, dest any) error {
	rows, err := sqlx.NamedQueryContext(ctx, e, q, arg)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.StructScan(dest); err != nil {
		return err
	}
	return rows.Err()
}

func storeError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrRecordNotFound
	}
	if dup := dbx.DuplicateError(err); dup != nil {
		return dup
	}
	return fmt.Errorf("%s: %w", op, err)
}
