package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tourbook/internal/dbx"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/resources"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	UserDocuments(db *sqlx.DB) resources.Repository[models.User]
	Tours(db *sqlx.DB) resources.Repository[models.Tour]
	Reviews(db *sqlx.DB) resources.Repository[models.Review]
	Bookings(db *sqlx.DB) resources.Repository[models.Booking]
}
