// Package httpapi is the HTTP boundary of tourbook: the middleware
// chain, the JSON API under /api/v1, the rendered pages and the mapping
// from tagged errors to status codes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/clock"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
	"github.com/dmitrijs2005/tourbook/internal/server/ratelimit"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/resources"
	"github.com/dmitrijs2005/tourbook/internal/server/services"
)

const (
	apiPrefix = "/api/"
	apiV1     = "/api/v1"
)

// Options carries everything the HTTP layer needs. All fields except
// Renderer are required.
type Options struct {
	Log     logging.Logger
	Clock   clock.Clock
	Guard   *auth.Guard
	Limiter *ratelimit.Limiter

	Auth    *services.AuthService
	Reset   *services.ResetFlow
	Profile *services.ProfileService

	Users    *services.ResourceService[models.User]
	Tours    *services.ResourceService[models.Tour]
	Reviews  *services.ResourceService[models.Review]
	Bookings *services.ResourceService[models.Booking]

	Renderer Renderer

	CookieValidity time.Duration
	Production     bool
	TrustProxy     bool
	// PublicURL prefixes links sent by email.
	PublicURL string
}

type Server struct {
	opts Options
	log  logging.Logger
	mux  *http.ServeMux

	users    *resourceHandler[models.User]
	tours    *resourceHandler[models.Tour]
	reviews  *resourceHandler[models.Review]
	bookings *resourceHandler[models.Booking]
}

func New(o Options) *Server {
	if o.Renderer == nil {
		o.Renderer = JSONRenderer{}
	}
	s := &Server{
		opts: o,
		log:  o.Log.With("module", "http"),
		mux:  http.NewServeMux(),
	}
	s.users = newResourceHandler(o.Users, resources.UserSchema, s.log)
	s.tours = newResourceHandler(o.Tours, resources.TourSchema, s.log)
	s.tours.expand = []string{resources.RelationReviews}
	s.reviews = newResourceHandler(o.Reviews, resources.ReviewSchema, s.log)
	s.bookings = newResourceHandler(o.Bookings, resources.BookingSchema, s.log)
	s.routes()
	return s
}

// Handler returns the mux wrapped in the global middleware chain.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		Recover(s.log),
		RequestID,
		Logging(s.log, s.opts.Clock),
		RateLimit(s.opts.Limiter, s.opts.Clock, apiPrefix, s.opts.TrustProxy, s.log),
		LimitBody(MaxBodyBytes),
	)
}

func (s *Server) routes() {
	var (
		protect = s.Protect
		admin   = s.Restrict(models.RoleAdmin)
		staff   = s.Restrict(models.RoleAdmin, models.RoleLeadGuide)
		member  = s.Restrict(models.RoleUser)
		editor  = s.Restrict(models.RoleUser, models.RoleAdmin)
	)
	handle := func(pattern string, h http.HandlerFunc, mws ...Middleware) {
		s.mux.Handle(pattern, chain(h, mws...))
	}

	// accounts
	handle("POST "+apiV1+"/users/signup", s.signup)
	handle("POST "+apiV1+"/users/login", s.login)
	handle("GET "+apiV1+"/users/logout", s.logout)
	handle("POST "+apiV1+"/users/forgotPassword", s.forgotPassword)
	handle("PATCH "+apiV1+"/users/resetPassword/{token}", s.resetPassword)
	handle("PATCH "+apiV1+"/users/updateMyPassword", s.updateMyPassword, protect)
	handle("GET "+apiV1+"/users/me", s.getMe, protect)
	handle("PATCH "+apiV1+"/users/updateMe", s.updateMe, protect)
	handle("DELETE "+apiV1+"/users/deleteMe", s.deleteMe, protect)

	// user administration
	handle("GET "+apiV1+"/users", s.users.list, protect, admin)
	handle("POST "+apiV1+"/users", s.createUser, protect, admin)
	handle("GET "+apiV1+"/users/{id}", s.users.get, protect, admin)
	handle("PATCH "+apiV1+"/users/{id}", s.users.update, protect, admin)
	handle("DELETE "+apiV1+"/users/{id}", s.users.remove, protect, admin)

	// tours
	handle("GET "+apiV1+"/tours", s.tours.list)
	handle("GET "+apiV1+"/tours/top-5-cheap", s.topFiveCheap)
	handle("GET "+apiV1+"/tours/{id}", s.tours.get)
	handle("POST "+apiV1+"/tours", s.tours.create, protect, staff)
	handle("PATCH "+apiV1+"/tours/{id}", s.tours.update, protect, staff)
	handle("DELETE "+apiV1+"/tours/{id}", s.tours.remove, protect, staff)

	// reviews, global and nested under a tour
	handle("GET "+apiV1+"/reviews", s.listReviews, protect)
	handle("GET "+apiV1+"/tours/{tourId}/reviews", s.listReviews, protect)
	handle("POST "+apiV1+"/reviews", s.createReview, protect, member)
	handle("POST "+apiV1+"/tours/{tourId}/reviews", s.createReview, protect, member)
	handle("GET "+apiV1+"/reviews/{id}", s.reviews.get, protect)
	handle("PATCH "+apiV1+"/reviews/{id}", s.updateReview, protect, editor)
	handle("DELETE "+apiV1+"/reviews/{id}", s.deleteReview, protect, editor)

	// bookings
	handle("GET "+apiV1+"/bookings", s.bookings.list, protect, staff)
	handle("POST "+apiV1+"/bookings", s.bookings.create, protect, staff)
	handle("GET "+apiV1+"/bookings/{id}", s.bookings.get, protect, staff)
	handle("PATCH "+apiV1+"/bookings/{id}", s.bookings.update, protect, staff)
	handle("DELETE "+apiV1+"/bookings/{id}", s.bookings.remove, protect, staff)

	// pages
	handle("GET /{$}", s.overviewPage, s.Identify)
	handle("GET /tour/{id}", s.tourPage, s.Identify)
	handle("GET /me", s.accountPage, protect)

	handle(apiPrefix, s.notFound)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(r.Context(), w, s.log, errRouteNotFound(r))
}

// topFiveCheap is the canned list "best rated, then cheapest, five".
func (s *Server) topFiveCheap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set(query.ParamLimit, "5")
	q.Set(query.ParamSort, "-ratingsAverage,price")

	r2 := r.Clone(r.Context())
	r2.URL.RawQuery = q.Encode()
	s.tours.list(w, r2)
}
