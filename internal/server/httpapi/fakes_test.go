package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/dmitrijs2005/tourbook/internal/server/ratelimit"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/resources"
	usersrepo "github.com/dmitrijs2005/tourbook/internal/server/repositories/users"
	"github.com/dmitrijs2005/tourbook/internal/server/services"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// memUsers keeps credential records in memory, hiding inactive ones.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
	seq  int
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Email == u.Email {
			return nil, common.ValidationFailed("Duplicate field value: "+u.Email+". Please use another value!", nil)
		}
	}
	m.seq++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", m.seq)
	cp.Active = true
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) find(pred func(*models.User) bool) (*models.User, error) {
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
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) SetResetToken(_ context.Context, id, digest string, expires time.Time) error {
	return m.edit(id, func(u *models.User) {
		u.PasswordResetToken = &digest
		u.PasswordResetExpires = &expires
	})
}

func (m *memUsers) ClearResetToken(_ context.Context, id string) error {
	return m.edit(id, func(u *models.User) {
		u.PasswordResetToken = nil
		u.PasswordResetExpires = nil
	})
}

func (m *memUsers) FindByResetToken(_ context.Context, digest string, now time.Time) (*models.User, error) {
	return m.find(func(u *models.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == digest && u.PasswordResetExpires.After(now)
	})
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	return m.edit(id, func(u *models.User) {
		u.PasswordHash = hash
		u.PasswordChangedAt = &changedAt
		u.PasswordResetToken = nil
		u.PasswordResetExpires = nil
	})
}

func (m *memUsers) UpdateProfile(_ context.Context, in *models.User) (*models.User, error) {
	var out models.User
	err := m.edit(in.ID, func(u *models.User) {
		u.Name, u.Email, u.Photo = in.Name, in.Email, in.Photo
		out = *u
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *memUsers) Deactivate(_ context.Context, id string) error {
	return m.edit(id, func(u *models.User) { u.Active = false })
}

func (m *memUsers) edit(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !u.Active {
		return common.ErrRecordNotFound
	}
	fn(u)
	return nil
}

func (m *memUsers) setRole(id string, r models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Role = r
}

type repoManager struct {
	users *memUsers
}

func (m *repoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *repoManager) Users(dbx.DBTX) usersrepo.Repository { return m.users }

func (m *repoManager) UserDocuments(*sqlx.DB) resources.Repository[models.User] { return nil }

func (m *repoManager) Tours(*sqlx.DB) resources.Repository[models.Tour] { return nil }

func (m *repoManager) Reviews(*sqlx.DB) resources.Repository[models.Review] { return nil }

func (m *repoManager) Bookings(*sqlx.DB) resources.Repository[models.Booking] { return nil }

// memStore is a Repository[T] over a slice. Find ignores the filter and
// records the descriptor it was given.
type memStore[T any] struct {
	mu    sync.Mutex
	items map[string]*T
	order []string
	id    func(*T) *string
	seq   int
	last  query.Descriptor
	err   error
}

func newMemStore[T any](id func(*T) *string) *memStore[T] {
	return &memStore[T]{items: map[string]*T{}, id: id}
}

func (m *memStore[T]) put(item *T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := *m.id(item)
	if _, ok := m.items[id]; !ok {
		m.order = append(m.order, id)
	}
	m.items[id] = item
}

func (m *memStore[T]) Create(_ context.Context, item *T) (*T, error) {
	if p, ok := any(item).(resources.Preparer); ok {
		p.Prepare()
	}
	if v, ok := any(item).(resources.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	m.seq++
	*m.id(item) = fmt.Sprintf("new-%d", m.seq)
	m.mu.Unlock()
	cp := *item
	m.put(&cp)
	return item, nil
}

func (m *memStore[T]) FindByID(_ context.Context, id string, _ ...string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *memStore[T]) Find(_ context.Context, d query.Descriptor) ([]*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = d
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*T, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.items[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore[T]) UpdateByID(_ context.Context, id string, patch map[string]any) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	b, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, item); err != nil {
		return nil, common.ValidationFailed("Invalid input data", err)
	}
	cp := *item
	return &cp, nil
}

func (m *memStore[T]) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return common.ErrRecordNotFound
	}
	delete(m.items, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type recordedMail struct {
	kind string
	url  string
}

type memMail struct {
	mu   sync.Mutex
	sent []recordedMail
	err  error
}

func (m *memMail) SendWelcome(_ context.Context, _ *models.User, url string) error {
	return m.record("welcome", url)
}

func (m *memMail) SendPasswordReset(_ context.Context, _ *models.User, url string) error {
	return m.record("reset", url)
}

func (m *memMail) record(kind, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, recordedMail{kind: kind, url: url})
	return nil
}

type env struct {
	handler  http.Handler
	clock    *clock.FakeClock
	users    *memUsers
	tours    *memStore[models.Tour]
	reviews  *memStore[models.Review]
	bookings *memStore[models.Booking]
	mail     *memMail
	mock     sqlmock.Sqlmock
}

type envOption func(*Options)

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	c := clock.Fake(epoch)
	users := &memUsers{byID: map[string]*models.User{}}
	m := &memMail{}
	tokens := auth.NewTokenService("test-secret", time.Hour, c)

	deps := services.Deps{
		DB:          db,
		RepoManager: &repoManager{users: users},
		Tokens:      tokens,
		Hasher:      auth.NewHasher(bcrypt.MinCost, 2),
		Mail:        m,
		Clock:       c,
		Log:         logging.Nop(),
		PublicURL:   "http://127.0.0.1:3000",
	}

	tours := newMemStore(func(x *models.Tour) *string { return &x.ID })
	reviews := newMemStore(func(x *models.Review) *string { return &x.ID })
	bookings := newMemStore(func(x *models.Booking) *string { return &x.ID })
	userDocs := newMemStore(func(x *models.User) *string { return &x.ID })

	o := Options{
		Log:            logging.Nop(),
		Clock:          c,
		Guard:          auth.NewGuard(tokens, users),
		Limiter:        ratelimit.New(1000, time.Hour, c),
		Auth:           services.NewAuthService(deps),
		Reset:          services.NewResetFlow(deps, 10*time.Minute),
		Profile:        services.NewProfileService(deps),
		Users:          services.NewResourceService[models.User](userDocs),
		Tours:          services.NewResourceService[models.Tour](tours),
		Reviews:        services.NewResourceService[models.Review](reviews),
		Bookings:       services.NewResourceService[models.Booking](bookings),
		CookieValidity: 90 * 24 * time.Hour,
		PublicURL:      "http://127.0.0.1:3000",
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &env{
		handler:  New(o).Handler(),
		clock:    c,
		users:    users,
		tours:    tours,
		reviews:  reviews,
		bookings: bookings,
		mail:     m,
		mock:     mock,
	}
}

// do sends a request through the full middleware chain. A non-empty
// token goes into the Authorization header.
func (e *env) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// signup registers a user over HTTP and returns its id and token.
func (e *env) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/users/signup", map[string]string{
		"name": "Test User", "email": email, "password": "pass1234", "passwordConfirm": "pass1234",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
		Data  struct {
			User models.User `json:"user"`
		} `json:"data"`
	}
	decode(t, rec, &out)
	return out.Data.User.ID, out.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type failure struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func failureOf(t *testing.T, rec *httptest.ResponseRecorder) failure {
	t.Helper()
	var f failure
	decode(t, rec, &f)
	return f
}
