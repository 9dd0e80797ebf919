package resources

import (
	"context"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
)

// Scoped wraps a repository so that documents outside a fixed predicate
// are invisible: lists carry the condition and single-document
// operations treat a non-matching document as absent.
type Scoped[T any] struct {
	base  Repository[T]
	cond  query.Condition
	match func(*T) bool
}

func NewScoped[T any](base Repository[T], cond query.Condition, match func(*T) bool) *Scoped[T] {
	return &Scoped[T]{base: base, cond: cond, match: match}
}

func (s *Scoped[T]) Create(ctx context.Context, item *T) (*T, error) {
	return s.base.Create(ctx, item)
}

func (s *Scoped[T]) FindByID(ctx context.Context, id string, expand ...string) (*T, error) {
	item, err := s.base.FindByID(ctx, id, expand...)
	if err != nil {
		return nil, err
	}
	if !s.match(item) {
		return nil, common.ErrRecordNotFound
	}
	return item, nil
}

func (s *Scoped[T]) Find(ctx context.Context, d query.Descriptor) ([]*T, error) {
	return s.base.Find(ctx, d.Scoped(s.cond))
}

func (s *Scoped[T]) UpdateByID(ctx context.Context, id string, patch map[string]any) (*T, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.base.UpdateByID(ctx, id, patch)
}

func (s *Scoped[T]) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return s.base.DeleteByID(ctx, id)
}
