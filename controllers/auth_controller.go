package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"atmbank/config"
	"atmbank/database"
	"atmbank/middleware"
	"atmbank/services"
	"atmbank/utils"

	"github.com/go-playground/validator/v10"
)

// AuthController handles login, token refresh, logout and PIN changes.
type AuthController struct {
	db          *database.Database
	authService *services.AuthService
	tokens      *services.TokenService
	validate    *validator.Validate
}

// NewAuthController creates a new AuthController.
func NewAuthController(db *database.Database, cfg *config.Config, tokens *services.TokenService) *AuthController {
	return &AuthController{
		db:          db,
		authService: services.NewAuthService(db),
		tokens:      tokens,
		validate:    newValidator(),
	}
}

type loginRequest struct {
	AccountNumber string `json:"account_number" validate:"required,account_number"`
	PIN           string `json:"pin" validate:"required,pin"`
}

type changePINRequest struct {
	CurrentPIN string `json:"current_pin" validate:"required,pin"`
	NewPIN     string `json:"new_pin" validate:"required,pin"`
}

type sessionResponse struct {
	Success      bool        `json:"success"`
	Token        string      `json:"token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         userJSON    `json:"user"`
	Account      accountJSON `json:"account"`
}

type tokenPairResponse struct {
	Success      bool   `json:"success"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// bearerToken strips the Bearer prefix from the Authorization header.
func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// Login verifies the account number and PIN and issues a token pair.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := c.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, account, err := c.authService.FindAccountByNumber(req.AccountNumber)
	if err != nil {
		// Same response for unknown account and wrong PIN.
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !c.authService.VerifyPIN(account, req.PIN) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	access, err := c.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	refresh, err := c.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success:      true,
		Token:        access,
		RefreshToken: refresh,
		User:         toUserJSON(user),
		Account:      toAccountJSON(account),
	})
}

// Validate returns the session's user and account for an access token.
func (c *AuthController) Validate(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := c.db.GetUserByID(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Session invalid")
		return
	}
	account, err := c.db.GetAccountByUserID(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Session invalid")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		User:    toUserJSON(user),
		Account: toAccountJSON(account),
	})
}

// Refresh exchanges a valid, unrevoked refresh token for a fresh pair.
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, err := c.tokens.VerifyToken(bearerToken(r), services.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, services.ErrTokenRevoked) {
			writeError(w, http.StatusUnauthorized, "Token revoked")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	user, err := c.db.GetUserByID(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	access, err := c.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	refresh, err := c.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{
		Success:      true,
		Token:        access,
		RefreshToken: refresh,
	})
}

// Logout revokes the presented refresh token. Logout always reports
// success; an already-invalid token has nothing left to revoke.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := c.tokens.VerifyToken(bearerToken(r), services.TokenTypeRefresh)
	if err == nil {
		if err := c.tokens.Revoke(claims); err != nil {
			utils.LogError("failed to revoke token %s: %v", claims.ID, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ChangePIN replaces the caller's PIN after verifying the current one.
func (c *AuthController) ChangePIN(w http.ResponseWriter, r *http.Request) {
	userID, _, err := middleware.GetUserFromContext(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req changePINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := c.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	account, err := c.db.GetAccountByUserID(userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Session invalid")
		return
	}

	if err := c.authService.ChangePIN(account, req.CurrentPIN, req.NewPIN); err != nil {
		if errors.Is(err, services.ErrInvalidPIN) {
			writeError(w, http.StatusUnauthorized, "Current PIN incorrect")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to change PIN")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
