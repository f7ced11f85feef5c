package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onelinediary/server/internal/account"
	"github.com/onelinediary/server/internal/config"
	"github.com/onelinediary/server/internal/models"
	"github.com/onelinediary/server/internal/security"
	log "github.com/sirupsen/logrus"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// AuthHandler serves signup, login and logout.
type AuthHandler struct {
	accounts *account.Service
	jwtCfg   config.JWTConfig
	secure   bool
}

// NewAuthHandler constructs an AuthHandler. secure marks the session cookie HTTPS-only.
func NewAuthHandler(accounts *account.Service, jwtCfg config.JWTConfig, secure bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwtCfg: jwtCfg, secure: secure}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates a credentials account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var body account.SignupInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": account.ErrMissingFields.Error()})
		return
	}
	if _, errSignup := h.accounts.Signup(c.Request.Context(), body); errSignup != nil {
		if account.IsValidationError(errSignup) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errSignup.Error()})
			return
		}
		log.WithError(errSignup).Error("auth: signup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "회원가입 중 오류가 발생했습니다."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "회원가입이 완료되었습니다."})
}

// Login checks credentials and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	user, errAuth := h.accounts.Authenticate(c.Request.Context(), body.Email, body.Password)
	if errAuth != nil {
		if errors.Is(errAuth, account.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errAuth.Error()})
			return
		}
		log.WithError(errAuth).Error("auth: login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, errToken := security.IssueSessionToken(
		h.jwtCfg.Secret,
		h.jwtCfg.Expiry,
		strconv.FormatUint(user.ID, 10),
		user.Email,
		models.AuthProviderCredentials,
		time.Now().UTC(),
	)
	if errToken != nil {
		log.WithError(errToken).WithField("user_id", user.ID).Error("auth: issue token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(h.jwtCfg.Expiry.Seconds()), "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
