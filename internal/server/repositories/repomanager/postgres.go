// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tourbook/internal/dbx"
	"github.com/dmitrijs2005/tourbook/internal/server/migrations"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/resources"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns the credential repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// UserDocuments serves the admin user endpoints. Deactivated users are
// invisible through it.
func (m *PostgresRepositoryManager) UserDocuments(db *sqlx.DB) resources.Repository[models.User] {
	store := resources.NewPostgresStore[models.User](db, resources.UserSchema)
	return resources.NewScoped[models.User](store, query.Eq("active", true),
		func(u *models.User) bool { return u.Active })
}

// Tours can expand their reviews on single reads.
func (m *PostgresRepositoryManager) Tours(db *sqlx.DB) resources.Repository[models.Tour] {
	return resources.NewPostgresStore[models.Tour](db, resources.TourSchema,
		resources.WithExpander[models.Tour](resources.RelationReviews, resources.TourReviews))
}

// Reviews always carry their author and keep the parent tour's rating
// aggregate current.
func (m *PostgresRepositoryManager) Reviews(db *sqlx.DB) resources.Repository[models.Review] {
	store := resources.NewPostgresStore[models.Review](db, resources.ReviewSchema,
		resources.WithExpander[models.Review](resources.RelationAuthor, resources.ReviewAuthor),
		resources.WithDefaultExpand[models.Review](resources.RelationAuthor))
	return resources.NewRatingsSideEffect(store, db)
}

func (m *PostgresRepositoryManager) Bookings(db *sqlx.DB) resources.Repository[models.Booking] {
	return resources.NewPostgresStore[models.Booking](db, resources.BookingSchema)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
