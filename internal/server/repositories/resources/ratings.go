package resources

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/jmoiron/sqlx"
)

const recomputeRatings = `UPDATE tours SET
	 ratings_quantity = s.n,
	 ratings_average = COALESCE(ROUND(s.avg::numeric, 1)::double precision, $2)
	 FROM (SELECT COUNT(*) AS n, AVG(rating) AS avg FROM reviews WHERE tour_id = $1) s
	 WHERE tours.id = $1`

// RatingsSideEffect keeps a tour's rating aggregate in step with its
// reviews. It recomputes after every successful review write.
type RatingsSideEffect struct {
	base Repository[models.Review]
	db   sqlx.ExecerContext
}

func NewRatingsSideEffect(base Repository[models.Review], db sqlx.ExecerContext) *RatingsSideEffect {
	return &RatingsSideEffect{base: base, db: db}
}

func (r *RatingsSideEffect) Create(ctx context.Context, item *models.Review) (*models.Review, error) {
	out, err := r.base.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	if err := r.recompute(ctx, out.TourID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RatingsSideEffect) FindByID(ctx context.Context, id string, expand ...string) (*models.Review, error) {
	return r.base.FindByID(ctx, id, expand...)
}

func (r *RatingsSideEffect) Find(ctx context.Context, d query.Descriptor) ([]*models.Review, error) {
	return r.base.Find(ctx, d)
}

func (r *RatingsSideEffect) UpdateByID(ctx context.Context, id string, patch map[string]any) (*models.Review, error) {
	out, err := r.base.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if err := r.recompute(ctx, out.TourID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RatingsSideEffect) DeleteByID(ctx context.Context, id string) error {
	existing, err := r.base.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.base.DeleteByID(ctx, id); err != nil {
		return err
	}
	return r.recompute(ctx, existing.TourID)
}

func (r *RatingsSideEffect) recompute(ctx context.Context, tourID string) error {
	if _, err := r.db.ExecContext(ctx, recomputeRatings, tourID, models.DefaultRatingsAverage); err != nil {
		return fmt.Errorf("recompute ratings for tour %s: %w", tourID, err)
	}
	return nil
}
