package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/floracafe/cafesite/api/models"
	"github.com/floracafe/cafesite/store"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "cafe_session"
	bearerPrefix  = "Bearer "
)

// HashPassword returns the bcrypt hash stored in the admin configuration.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (ws *WebServer) checkCredentials(email, password string) bool {
	wantEmail := strings.ToLower(strings.TrimSpace(ws.adminEmail))
	gotEmail := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(wantEmail), []byte(gotEmail)) == 1

	// always compare the hash so a wrong email costs the same as a wrong password
	passwordOK := bcrypt.CompareHashAndPassword([]byte(ws.adminPasswordHash), []byte(password)) == nil
	return emailOK && passwordOK
}

func (ws *WebServer) handleLogin(c *gin.Context) {
	if ws.adminEmail == "" || ws.adminPasswordHash == "" {
		respondError(c, http.StatusServiceUnavailable, "admin login is not configured")
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if !ws.checkCredentials(req.Email, req.Password) {
		slog.Warn("failed admin login", "email", req.Email, "ip", c.ClientIP())
		respondError(c, http.StatusUnauthorized, "Email ou senha inválidos.")
		return
	}

	session, err := ws.db.CreateSession(strings.ToLower(strings.TrimSpace(req.Email)), ws.sessionTTL)
	if err != nil {
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to create session: %v", err))
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, session.Token, int(ws.sessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, models.LoginResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (ws *WebServer) handleLogout(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		if err := ws.db.DeleteSession(token); err != nil {
			slog.Warn("failed to delete session", "error", err)
		}
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out"})
}

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
	}
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return token
}

func (ws *WebServer) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		_, err := ws.db.GetSession(token)
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusUnauthorized, "session expired")
			c.Abort()
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, fmt.Sprintf("Failed to check session: %v", err))
			c.Abort()
			return
		}

		c.Next()
	}
}
