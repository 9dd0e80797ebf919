package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/query"
)

// listReviews serves both /reviews and /tours/{tourId}/reviews. Under a
// tour the tour filter is fixed, whatever the query string says.
func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	var scope []query.Condition
	if tourID := r.PathValue("tourId"); tourID != "" {
		scope = append(scope, query.Eq("tour", tourID))
	}
	s.reviews.listScoped(w, r, scope...)
}

// createReview files the review under the caller. The tour comes from
// the path when nested, else from the body.
func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var review models.Review
	if err := decodeJSON(r, &review); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	if tourID := r.PathValue("tourId"); tourID != "" {
		review.TourID = tourID
	}
	review.UserID = auth.PrincipalFrom(r.Context()).ID
	review.Author = nil
	s.reviews.insert(w, r, &review)
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	if !s.ownsReview(w, r) {
		return
	}
	s.reviews.update(w, r)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	if !s.ownsReview(w, r) {
		return
	}
	s.reviews.remove(w, r)
}

// ownsReview lets admins through and limits everyone else to reviews
// they wrote. It writes the error response itself.
func (s *Server) ownsReview(w http.ResponseWriter, r *http.Request) bool {
	me := auth.PrincipalFrom(r.Context())
	if me.Role == models.RoleAdmin {
		return true
	}
	review, err := s.opts.Reviews.GetOne(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return false
	}
	if review.UserID != me.ID {
		writeError(r.Context(), w, s.log, common.Forbidden("You can only change your own reviews"))
		return false
	}
	return true
}
