package resources

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory Repository[models.User] that records the
// descriptors it was asked to run.
type memUsers struct {
	items   map[string]*models.User
	finds   []query.Descriptor
	deleted []string
	updated []string
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.items[u.ID] = u
	return u, nil
}

func (m *memUsers) FindByID(_ context.Context, id string, _ ...string) (*models.User, error) {
	u, ok := m.items[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	return u, nil
}

func (m *memUsers) Find(_ context.Context, d query.Descriptor) ([]*models.User, error) {
	m.finds = append(m.finds, d)
	return nil, nil
}

func (m *memUsers) UpdateByID(_ context.Context, id string, _ map[string]any) (*models.User, error) {
	m.updated = append(m.updated, id)
	return m.items[id], nil
}

func (m *memUsers) DeleteByID(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func activeUsers(base Repository[models.User]) *Scoped[models.User] {
	return NewScoped(base, query.Eq("active", true), func(u *models.User) bool { return u.Active })
}

func TestScoped_HidesInactive(t *testing.T) {
	base := &memUsers{items: map[string]*models.User{
		"a": {ID: "a", Active: true},
		"b": {ID: "b", Active: false},
	}}
	repo := activeUsers(base)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, "b")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	_, err = repo.UpdateByID(ctx, "b", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
	assert.ErrorIs(t, repo.DeleteByID(ctx, "b"), common.ErrRecordNotFound)
	assert.Empty(t, base.updated)
	assert.Empty(t, base.deleted)

	_, err = repo.UpdateByID(ctx, "a", map[string]any{"name": "x"})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByID(ctx, "a"))
	assert.Equal(t, []string{"a"}, base.updated)
	assert.Equal(t, []string{"a"}, base.deleted)
}

func TestScoped_FindOverridesClientCondition(t *testing.T) {
	base := &memUsers{items: map[string]*models.User{}}
	repo := activeUsers(base)

	d := query.Descriptor{Filter: []query.Condition{query.Eq("active", "false"), query.Eq("role", "guide")}}
	_, err := repo.Find(context.Background(), d)
	require.NoError(t, err)

	require.Len(t, base.finds, 1)
	c, ok := base.finds[0].Lookup("active", query.OpEq)
	require.True(t, ok)
	assert.Equal(t, true, c.Value)
	_, ok = base.finds[0].Lookup("role", query.OpEq)
	assert.True(t, ok)
}

type memReviews struct {
	items     map[string]*models.Review
	createErr error
}

func (m *memReviews) Create(_ context.Context, r *models.Review) (*models.Review, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.items[r.ID] = r
	return r, nil
}

func (m *memReviews) FindByID(_ context.Context, id string, _ ...string) (*models.Review, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	return r, nil
}

func (m *memReviews) Find(context.Context, query.Descriptor) ([]*models.Review, error) {
	return nil, nil
}

func (m *memReviews) UpdateByID(_ context.Context, id string, patch map[string]any) (*models.Review, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	if v, ok := patch["rating"].(int); ok {
		r.Rating = v
	}
	return r, nil
}

func (m *memReviews) DeleteByID(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return common.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

const recomputeRe = `(?s)^UPDATE tours SET.*ratings_quantity = s\.n.*FROM \(SELECT COUNT\(\*\) AS n, AVG\(rating\) AS avg FROM reviews WHERE tour_id = \$1\) s\s+WHERE tours\.id = \$1$`

func TestRatingsSideEffect_RecomputesAfterWrites(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	base := &memReviews{items: map[string]*models.Review{}}
	repo := NewRatingsSideEffect(base, db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mock.ExpectExec(recomputeRe).WithArgs(tourID, models.DefaultRatingsAverage).WillReturnResult(sqlmock.NewResult(0, 1))
	}

	_, err = repo.Create(ctx, &models.Review{ID: reviewID, TourID: tourID, UserID: userID, Rating: 4, Review: "ok"})
	require.NoError(t, err)
	_, err = repo.UpdateByID(ctx, reviewID, map[string]any{"rating": 5})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByID(ctx, reviewID))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingsSideEffect_NoRecomputeOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	base := &memReviews{items: map[string]*models.Review{}, createErr: common.ValidationFailed("Invalid input data. x", nil)}
	repo := NewRatingsSideEffect(base, db)
	ctx := context.Background()

	_, err = repo.Create(ctx, &models.Review{TourID: tourID})
	assert.ErrorIs(t, err, common.ErrValidationFailed)

	_, err = repo.UpdateByID(ctx, "missing", map[string]any{"rating": 5})
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	assert.ErrorIs(t, repo.DeleteByID(ctx, "missing"), common.ErrRecordNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingsSideEffect_RecomputeFailureIsReported(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	base := &memReviews{items: map[string]*models.Review{}}
	repo := NewRatingsSideEffect(base, db)

	mock.ExpectExec(recomputeRe).WillReturnError(errors.New("deadlock"))

	_, err = repo.Create(context.Background(), &models.Review{ID: reviewID, TourID: tourID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recompute ratings")
	assert.False(t, common.IsOperational(err))
}
