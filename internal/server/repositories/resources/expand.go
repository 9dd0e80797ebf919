package resources

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/jmoiron/sqlx"
)

const (
	RelationReviews = "reviews"
	RelationAuthor  = "user"
)

// TourReviews loads a tour's reviews, newest first, each with its author.
func TourReviews(ctx context.Context, db sqlx.QueryerContext, t *models.Tour) error {
	reviews := []*models.Review{}
	err := sqlx.SelectContext(ctx, db, &reviews,
		`SELECT id, review, rating, tour_id, user_id, created_at, version
		 FROM reviews WHERE tour_id = $1 ORDER BY created_at DESC`, t.ID)
	if err != nil {
		return err
	}
	for _, r := range reviews {
		if err := ReviewAuthor(ctx, db, r); err != nil {
			return err
		}
	}
	t.Reviews = reviews
	return nil
}

// ReviewAuthor loads the public profile of a review's author. A missing
// or deactivated author leaves the relation empty, as does a row read
// without its user column.
func ReviewAuthor(ctx context.Context, db sqlx.QueryerContext, r *models.Review) error {
	if r.UserID == "" {
		r.Author = nil
		return nil
	}
	a := &models.Author{}
	err := sqlx.GetContext(ctx, db, a,
		`SELECT id, name, photo FROM users WHERE id = $1 AND active`, r.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		r.Author = nil
		return nil
	}
	if err != nil {
		return err
	}
	r.Author = a
	return nil
}
