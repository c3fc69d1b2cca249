package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
	"expensetracker/internal/session"
)

// AuthHandler handles the sign-up, sign-in and sign-out screens. All state
// lives in the caller's workspace.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// SignUpRequest represents the sign-up request payload
type SignUpRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// SignInRequest represents the sign-in request payload
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignInResponse carries the session token. Clients without cookies send it
// back as a bearer token to restore the session in a fresh workspace.
type SignInResponse struct {
	Token    string           `json:"token"`
	ClientID string           `json:"client_id"`
	User     *models.Identity `json:"user"`
}

// SessionResponse is the auth gate of the client.
type SessionResponse struct {
	Session         session.State `json:"session"`
	ProfileComplete bool          `json:"profile_complete"`
	Theme           models.Theme  `json:"theme"`
}

// SignUp handles account creation
// @Summary     Sign up
// @Description Create an account. The client stays signed out; the confirmation flow is up to the gateway.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignUpRequest true "Full name and credentials"
// @Success     201 {object} MessageResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondWithError(c, apperrors.WithFields(apperrors.ErrInvalidInput, map[string]string{"name": "Name is required"}))
		return
	}

	if err := w.Session.SignUp(c.Request.Context(), req.Email, req.Password, req.Name); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{
		Message: "Account created successfully! Please check your email for verification.",
	})
}

// SignIn handles sign-in
// @Summary     Sign in
// @Description Sign in with email and password. The user's profile and expenses are loaded before the response.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignInRequest true "Credentials"
// @Success     200 {object} SignInResponse "Signed in"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := w.Session.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SignInResponse{
		Token:    w.Gateway.SessionToken(),
		ClientID: w.ID,
		User:     w.Session.Identity(),
	})
}

// SignOut handles sign-out
// @Summary     Sign out
// @Description End the session and clear the client's local data
// @Tags        auth
// @Produce     json
// @Success     200 {object} MessageResponse "Signed out"
// @Failure     502 {object} ErrorResponse "Gateway error"
// @Router      /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := w.Session.SignOut(c.Request.Context()); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Signed out successfully!"})
}

// Session reports the session state
// @Summary     Current session
// @Description The signed-in user, whether a session call is in flight, and the last session error
// @Tags        auth
// @Produce     json
// @Success     200 {object} SessionResponse "Session state"
// @Router      /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	w, err := getWorkspace(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Session:         w.Session.Snapshot(),
		ProfileComplete: w.Store.IsProfileComplete(),
		Theme:           w.Theme(),
	})
}
