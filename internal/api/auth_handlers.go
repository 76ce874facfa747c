package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"insiden/internal/auth"
	"insiden/internal/ports"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, http.StatusUnprocessableEntity, "validation_error", "Invalid request body")
		return
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
			return
		}
		writeUsecaseError(ctx, w, err)
		return
	}
	if !user.IsActive || !auth.VerifyPassword(req.Password, user.HashedPassword) {
		writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
		return
	}

	token, err := s.tokens.Issue(user.ID, time.Now().UTC())
	if err != nil {
		writeUsecaseError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, "Login successful", loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
