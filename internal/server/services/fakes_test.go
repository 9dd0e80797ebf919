package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tourbook/internal/clock"
	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/dbx"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/resources"
	usersrepo "github.com/dmitrijs2005/tourbook/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// memUsers is an in-memory credential store with the same visibility
// rules as the Postgres one.
type memUsers struct {
	mu     sync.Mutex
	byID   map[string]*models.User
	nextID int

	updateErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Email == u.Email {
			return nil, common.ValidationFailed("Duplicate field value: "+u.Email+". Please use another value!", nil)
		}
	}
	m.nextID++
	cp := *u
	cp.ID = "u" + string(rune('0'+m.nextID))
	cp.Active = true
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) get(pred func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Active && pred(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	return m.get(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return m.get(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) SetResetToken(_ context.Context, id, digest string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrRecordNotFound
	}
	u.PasswordResetToken = &digest
	u.PasswordResetExpires = &expires
	return nil
}

func (m *memUsers) ClearResetToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrRecordNotFound
	}
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func (m *memUsers) FindByResetToken(_ context.Context, digest string, now time.Time) (*models.User, error) {
	return m.get(func(u *models.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == digest &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
	})
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.byID[id]
	if !ok {
		return common.ErrRecordNotFound
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, in *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[in.ID]
	if !ok || !u.Active {
		return nil, common.ErrRecordNotFound
	}
	u.Name, u.Email, u.Photo = in.Name, in.Email, in.Photo
	cp := *u
	return &cp, nil
}

func (m *memUsers) Deactivate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !u.Active {
		return common.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

// raw returns the stored record regardless of visibility.
func (m *memUsers) raw(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

type fakeRepoManager struct {
	users *memUsers
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.users }

func (m *fakeRepoManager) UserDocuments(*sqlx.DB) resources.Repository[models.User] { return nil }

func (m *fakeRepoManager) Tours(*sqlx.DB) resources.Repository[models.Tour] { return nil }

func (m *fakeRepoManager) Reviews(*sqlx.DB) resources.Repository[models.Review] { return nil }

func (m *fakeRepoManager) Bookings(*sqlx.DB) resources.Repository[models.Booking] { return nil }

type sentMail struct {
	kind string
	to   string
	url  string
}

type fakeMail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMail) SendWelcome(_ context.Context, u *models.User, url string) error {
	return f.record("welcome", u, url)
}

func (f *fakeMail) SendPasswordReset(_ context.Context, u *models.User, url string) error {
	return f.record("reset", u, url)
}

func (f *fakeMail) record(kind string, u *models.User, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{kind: kind, to: u.Email, url: url})
	return nil
}

type fixture struct {
	deps  Deps
	users *memUsers
	mail  *fakeMail
	clock *clock.FakeClock
	mock  sqlmock.Sqlmock
	guard *auth.Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	c := clock.Fake(epoch)
	users := newMemUsers()
	m := &fakeMail{}
	tokens := auth.NewTokenService("test-secret", time.Hour, c)

	return &fixture{
		deps: Deps{
			DB:          db,
			RepoManager: &fakeRepoManager{users: users},
			Tokens:      tokens,
			Hasher:      auth.NewHasher(bcrypt.MinCost, 2),
			Mail:        m,
			Clock:       c,
			Log:         logging.Nop(),
			PublicURL:   "http://127.0.0.1:3000/",
		},
		users: users,
		mail:  m,
		clock: c,
		mock:  mock,
		guard: auth.NewGuard(tokens, users),
	}
}

// seed signs up a user through the real service.
func (f *fixture) seed(t *testing.T, email, password string) *models.User {
	t.Helper()
	u, _, err := NewAuthService(f.deps).Signup(context.Background(), SignupInput{
		Name: "Ann Smith", Email: email, Password: password, PasswordConfirm: password,
	})
	if err != nil {
		t.Fatalf("seed signup: %v", err)
	}
	return u
}

var errBoom = errors.New("boom")
