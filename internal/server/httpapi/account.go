package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/common"
	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/services"
)

// loggedOutTTL is how long the placeholder cookie lives after logout.
const loggedOutTTL = 10 * time.Second

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Photo           string `json:"photo"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

// sendToken sets the session cookie and writes the token plus the user.
func (s *Server) sendToken(w http.ResponseWriter, r *http.Request, status int, user *models.User, token string) {
	expires := s.opts.Clock.Now().Add(s.opts.CookieValidity)
	http.SetCookie(w, tokenCookie(r, token, expires, s.opts.Production))
	writeJSON(w, status, successBody{
		Status: "success",
		Token:  token,
		Data:   map[string]any{"user": user},
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	user, token, err := s.opts.Auth.Signup(r.Context(), services.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Photo:           req.Photo,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	s.sendToken(w, r, http.StatusCreated, user, token)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	user, token, err := s.opts.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	s.sendToken(w, r, http.StatusOK, user, token)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	expires := s.opts.Clock.Now().Add(loggedOutTTL)
	http.SetCookie(w, tokenCookie(r, common.LoggedOutCookieValue, expires, s.opts.Production))
	writeJSON(w, http.StatusOK, successBody{Status: "success"})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	link := strings.TrimRight(s.opts.PublicURL, "/") + apiV1 + "/users/resetPassword"
	if err := s.opts.Reset.SendReset(r.Context(), req.Email, link); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	user, token, err := s.opts.Reset.ConsumeReset(r.Context(), r.PathValue("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	s.sendToken(w, r, http.StatusOK, user, token)
}

func (s *Server) updateMyPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	me := auth.PrincipalFrom(r.Context())
	user, token, err := s.opts.Auth.UpdateMyPassword(r.Context(), me.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	s.sendToken(w, r, http.StatusOK, user, token)
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	writeDoc(w, http.StatusOK, auth.PrincipalFrom(r.Context()))
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	user, err := s.opts.Profile.UpdateMe(r.Context(), auth.PrincipalFrom(r.Context()), body)
	if err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Status: "success", Data: map[string]any{"user": user}})
}

func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Profile.DeleteMe(r.Context(), auth.PrincipalFrom(r.Context()).ID); err != nil {
		writeError(r.Context(), w, s.log, err)
		return
	}
	writeNoContent(w)
}

// createUser is closed: accounts are created through signup only.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	writeError(r.Context(), w, s.log, common.ValidationFailed("This route is not defined! Please use /signup instead", nil))
}
