package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"atmbank/config"
	"atmbank/database"
	"atmbank/services"

	"github.com/go-playground/validator/v10"
)

// UserController handles registration.
type UserController struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserController creates a new UserController.
func NewUserController(db *database.Database, cfg *config.Config) *UserController {
	return &UserController{
		userService: services.NewUserService(db, cfg),
		validate:    newValidator(),
	}
}

type registerResponse struct {
	Success bool        `json:"success"`
	User    userJSON    `json:"user"`
	Account accountJSON `json:"account"`
}

// Register creates a user together with their account.
func (c *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := c.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	user, account, err := c.userService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailExists):
			writeError(w, http.StatusConflict, "Email already exists")
		case errors.Is(err, services.ErrAccountNumberExists):
			writeError(w, http.StatusConflict, "Account number already exists")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Success: true,
		User:    toUserJSON(user),
		Account: toAccountJSON(account),
	})
}
