package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/resources"
)

const notFoundMessage = "No document found with that ID"

// ListResult is one page of documents together with the descriptor that
// produced it.
type ListResult[T any] struct {
	Items      []*T
	Count      int
	Descriptor query.Descriptor
}

// ResourceService runs the generic CRUD operations for one resource
// type. It does no field allow-listing: callers strip what a principal
// must not set before Create or UpdateOne.
type ResourceService[T any] struct {
	repo resources.Repository[T]
	opts []query.Option
}

func NewResourceService[T any](repo resources.Repository[T], opts ...query.Option) *ResourceService[T] {
	return &ResourceService[T]{repo: repo, opts: opts}
}

// List builds a descriptor from params and runs it. Scope conditions win
// over client conditions on the same field.
func (s *ResourceService[T]) List(ctx context.Context, params url.Values, scope ...query.Condition) (*ListResult[T], error) {
	d, err := query.Build(params, s.opts...)
	if err != nil {
		return nil, err
	}
	d = d.Scoped(scope...)

	items, err := s.repo.Find(ctx, d)
	if err != nil {
		return nil, err
	}
	return &ListResult[T]{Items: items, Count: len(items), Descriptor: d}, nil
}

func (s *ResourceService[T]) GetOne(ctx context.Context, id string, expand ...string) (*T, error) {
	item, err := s.repo.FindByID(ctx, id, expand...)
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func (s *ResourceService[T]) Create(ctx context.Context, item *T) (*T, error) {
	return s.repo.Create(ctx, item)
}

func (s *ResourceService[T]) UpdateOne(ctx context.Context, id string, patch map[string]any) (*T, error) {
	item, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func (s *ResourceService[T]) DeleteOne(ctx context.Context, id string) error {
	return notFound(s.repo.DeleteByID(ctx, id))
}

func notFound(err error) error {
	if errors.Is(err, common.ErrRecordNotFound) {
		return common.NotFound(notFoundMessage)
	}
	return err
}
