package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/query"
	"github.com/example/ec-storefront/internal/readmodel"
)

// AuthHandlers handles registration, login, logout and the profile
type AuthHandlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	jwtService   *auth.JWTService
	readStore    *readmodel.Store
}

func NewAuthHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, jwtService *auth.JWTService, readStore *readmodel.Store) *AuthHandlers {
	return &AuthHandlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		jwtService:   jwtService,
		readStore:    readStore,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type profileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerErrorResponse struct {
	Success bool                     `json:"success"`
	Errors  command.ValidationErrors `json:"errors"`
}

// Register handles user registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var cmd command.Register
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	_, err := h.cmdHandler.Register(cmd)
	var verrs command.ValidationErrors
	if errors.As(err, &verrs) {
		respondJSON(w, http.StatusBadRequest, registerErrorResponse{Success: false, Errors: verrs})
		return
	}
	if err != nil {
		log.Printf("[API] Error registering user: %v", err)
		respondJSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, messageResponse{Success: true, Message: "User registered successfully."})
}

// Login checks credentials and sets the session cookie
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondJSON(w, http.StatusBadRequest, registerErrorResponse{
			Success: false,
			Errors:  command.ValidationErrors{"non_field_errors": {"Username and password are required."}},
		})
		return
	}

	u, ok := h.queryHandler.Authenticate(req.Username, req.Password)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, messageResponse{Success: false, Message: "Invalid credentials."})
		return
	}

	token, expiresAt, err := h.jwtService.GenerateSessionToken(u.ID, u.Username)
	if err != nil {
		log.Printf("[API] Error issuing session for %s: %v", u.Username, err)
		respondJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	log.Printf("[API] User logged in: %s", u.Username)
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Login successful."})
}

// Logout revokes the current session and clears the cookie
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		expiresAt := time.Now().Add(h.jwtService.SessionExpiry())
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		h.readStore.RevokeSession(claims.ID, expiresAt)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout successful."})
}

// Profile returns the signed-in user's account
func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	u, ok := h.queryHandler.GetUser(middleware.GetUserID(r.Context()))
	if !ok {
		respondJSONError(w, "Not found.", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, profileResponse{ID: u.ID, Username: u.Username, Email: u.Email})
}
