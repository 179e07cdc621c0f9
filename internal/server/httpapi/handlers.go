package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/glowup/internal/common"
	"github.com/dmitrijs2005/glowup/internal/server/auth"
	"github.com/dmitrijs2005/glowup/internal/server/models"
	"github.com/dmitrijs2005/glowup/internal/server/services"
	"github.com/dmitrijs2005/glowup/internal/server/validation"
	"github.com/gin-gonic/gin"
)

// Sessions is what the handlers need from services.SessionManager.
type Sessions interface {
	Register(ctx context.Context, name, email, password string) (*models.PublicUser, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID int64) (int64, error)
	GetIdentity(ctx context.Context, userID int64) (*models.PublicUser, bool, error)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	sessions Sessions
	rec      Recorder
}

func NewAuthHandler(s Sessions, rec Recorder) *AuthHandler {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &AuthHandler{sessions: s, rec: rec}
}

// bind decodes the JSON body into dst. An empty body leaves dst zeroed so
// the field checks report what is missing.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(errBadRequestBody)
		return false
	}
	return true
}

func invalid(errs validation.Errors) error {
	return &apiError{status: http.StatusBadRequest, message: errs.Error(), details: errs}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	in, errs := validation.ValidateRegister(req.Name, req.Email, req.Password)
	if errs != nil {
		_ = c.Error(invalid(errs))
		return
	}

	user, err := h.sessions.Register(c.Request.Context(), in.Name, in.Email, in.Password)
	h.rec.ObserveAuthEvent("register", outcome(err))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondOK(c, http.StatusCreated, "User registered successfully", user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	in, errs := validation.ValidateLogin(req.Email, req.Password)
	if errs != nil {
		_ = c.Error(invalid(errs))
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), in.Email, in.Password)
	h.rec.ObserveAuthEvent("login", outcome(err))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondOK(c, http.StatusOK, "Login successful", res)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken)
	h.rec.ObserveAuthEvent("refresh", outcome(err))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondOK(c, http.StatusOK, "Token refreshed successfully", pair)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if !bind(c, &req) {
		return
	}

	err := h.sessions.Logout(c.Request.Context(), req.RefreshToken)
	h.rec.ObserveAuthEvent("logout", outcome(err))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			err = &apiError{status: http.StatusNotFound, message: "Refresh token not found", cause: err}
		}
		_ = c.Error(err)
		return
	}
	respondOK(c, http.StatusOK, "Logged out successfully", nil)
}

// LogoutAll revokes every session of the authenticated user.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		_ = c.Error(errMissingAccessToken)
		return
	}

	n, err := h.sessions.RevokeAll(c.Request.Context(), claims.UserID)
	h.rec.ObserveAuthEvent("logout_all", outcome(err))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondOK(c, http.StatusOK, "All sessions revoked", gin.H{"revoked": n})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		_ = c.Error(errMissingAccessToken)
		return
	}

	user, found, err := h.sessions.GetIdentity(c.Request.Context(), claims.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !found {
		_ = c.Error(&apiError{status: http.StatusNotFound, message: "User not found"})
		return
	}
	respondOK(c, http.StatusOK, "User profile fetched successfully", user)
}
