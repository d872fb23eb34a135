// Package api exposes the auth service over HTTP as a small JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/andrebq/keybox/auth"
	"github.com/andrebq/keybox/internal/logutil"
	"github.com/andrebq/keybox/userdb"
)

const (
	// CookieName carries the session token between requests for
	// browser clients. API clients can send the same token as a
	// bearer token instead and never deal with cookies.
	CookieName = "keybox_session"
)

type (
	Handler struct {
		svc            *auth.Service
		sessionTTL     time.Duration
		insecureCookie bool
	}

	userView struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	envelope struct {
		Success bool      `json:"success"`
		Message string    `json:"message"`
		User    *userView `json:"user,omitempty"`
	}

	checkView struct {
		Authenticated bool      `json:"authenticated"`
		User          *userView `json:"user,omitempty"`
		Message       string    `json:"message,omitempty"`
	}

	loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	signupRequest struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
)

var (
	bearerTokenRE = regexp.MustCompile(`^Bearer ([^\s]+)$`)
)

// NewHandler wraps svc. sessionTTL bounds the cookie lifetime and
// should match the session store's TTL. allowHTTPCookie drops the
// Secure attribute so local http:// development works.
func NewHandler(svc *auth.Service, sessionTTL time.Duration, allowHTTPCookie bool) *Handler {
	return &Handler{
		svc:            svc,
		sessionTTL:     sessionTTL,
		insecureCookie: allowHTTPCookie,
	}
}

// AsHandler mounts the four auth endpoints on a fresh router.
func (h *Handler) AsHandler() http.Handler {
	router := httprouter.New()
	router.HandlerFunc("POST", "/login", h.login)
	router.HandlerFunc("POST", "/signup", h.signup)
	router.HandlerFunc("POST", "/logout", h.logout)
	router.HandlerFunc("GET", "/check", h.check)
	return router
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	switch err.(type) {
	case nil:
	case auth.ValidationError:
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Username and password are required"})
		return
	case auth.InvalidCredentials:
		writeJSON(w, http.StatusUnauthorized, envelope{Message: "Invalid username or password"})
		return
	default:
		h.serverError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Login successful", User: viewOf(user)})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	token, user, err := h.svc.Signup(r.Context(), req.Username, req.Email, req.Password, req.PasswordConfirm)
	switch err := err.(type) {
	case nil:
	case auth.ValidationError:
		writeJSON(w, http.StatusBadRequest, envelope{Message: err.Message})
		return
	case userdb.DuplicateUsername:
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Username already exists"})
		return
	case userdb.DuplicateEmail:
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Email already exists"})
		return
	default:
		h.serverError(w, r, err)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Account created successfully", User: viewOf(user)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Logout(r.Context(), h.requestToken(r))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out successfully"})
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.CheckAuth(r.Context(), h.requestToken(r))
	if err != nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Msg("Unable to check authentication status")
		writeJSON(w, http.StatusInternalServerError, checkView{Message: "unexpected server error"})
		return
	}
	if !status.Authenticated {
		writeJSON(w, http.StatusOK, checkView{})
		return
	}
	writeJSON(w, http.StatusOK, checkView{Authenticated: true, User: viewOf(status.User)})
}

// Protect guards sensitive with the same token check the /check
// endpoint uses, for anything an embedder mounts next to the auth API.
func (h *Handler) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status, err := h.svc.CheckAuth(r.Context(), h.requestToken(r))
		if err != nil {
			h.serverError(w, r, err)
			return
		}
		if !status.Authenticated {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: "Invalid credentials"})
			return
		}
		sensitive.ServeHTTP(w, r)
	})
}

// requestToken prefers a bearer token over the session cookie.
func (h *Handler) requestToken(r *http.Request) string {
	groups := bearerTokenRE.FindStringSubmatch(r.Header.Get("Authorization"))
	if len(groups) != 0 {
		return groups[1]
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   !h.insecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.insecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	// the cause stays in the logs, clients get a generic message
	log := logutil.GetOrDefault(r.Context())
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Unexpected error while handling auth request")
	writeJSON(w, http.StatusInternalServerError, envelope{Message: "unexpected server error"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(out)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid JSON data"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func viewOf(u userdb.User) *userView {
	return &userView{ID: u.ID, Username: u.Username, Email: u.Email}
}
