package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/store"
	"github.com/notevault/notevault/internal/token"
	"github.com/notevault/notevault/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	users  store.UserStore
	tokens *token.Service
}

func NewAuthHandler(users store.UserStore, tokens *token.Service) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&input); err != nil || input.Username == "" || input.Password == "" {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	// Check if username already exists
	_, err := h.users.UserByUsername(r.Context(), input.Username)
	switch {
	case err == nil:
		utils.JSONError(w, http.StatusBadRequest, "Username is already taken")
		return
	case errors.Is(err, store.ErrNotFound):
		// new user, continue
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Internal server error occurred")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Internal server error occurred")
		return
	}

	newUser := models.User{
		Username: input.Username,
		Password: string(hashed),
	}
	if err := h.users.CreateUser(r.Context(), &newUser); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Internal server error occurred")
		return
	}

	utils.JSONResponse(w, http.StatusOK, map[string]any{
		"message": "User signed up successfully!!",
		"id":      newUser.ID,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&input); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	user, err := h.users.UserByUsername(r.Context(), input.Username)
	switch {
	case err == nil:
		// user found
	case errors.Is(err, store.ErrNotFound):
		incorrectCredentials(w)
		return
	default:
		utils.JSONError(w, http.StatusInternalServerError, "Internal server error occurred")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		incorrectCredentials(w)
		return
	}

	tokenString, err := h.tokens.Issue(user.Username)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	utils.JSONResponse(w, http.StatusOK, map[string]string{"token": tokenString})
}

func incorrectCredentials(w http.ResponseWriter) {
	// 411 is the wire contract for bad credentials.
	utils.JSONMessage(w, http.StatusLengthRequired, "Incorrect credentials")
}
