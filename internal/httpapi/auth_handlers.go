package httpapi

import (
	"net/http"
	"time"

	"permitdesk.org/internal/audit"
	"permitdesk.org/internal/auth"
	"permitdesk.org/internal/obs"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"omitempty,max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
	Role  string  `json:"role"`
}

type authResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role)}
}

func toAuthResponse(s *auth.Session) authResponse {
	return authResponse{User: toUserResponse(s.User), AccessToken: s.AccessToken, ExpiresAt: s.ExpiresAt}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	sess, err := a.auth.Register(r.Context(), auth.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name})
	if err != nil {
		obs.RecordAuth("register", "rejected")
		a.handleError(w, r, err)
		return
	}
	obs.RecordAuth("register", "ok")
	setRequestUser(r.Context(), sess.User.ID)
	_ = audit.LogEvent(r.Context(), audit.UserRegistered, map[string]any{
		"user_id": sess.User.ID,
		"email":   sess.User.Email,
	})
	writeSuccess(w, http.StatusCreated, "User registered successfully", toAuthResponse(sess))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.handleError(w, r, err)
		return
	}
	sess, err := a.auth.Login(r.Context(), auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		obs.RecordAuth("login", "rejected")
		a.handleError(w, r, err)
		return
	}
	obs.RecordAuth("login", "ok")
	setRequestUser(r.Context(), sess.User.ID)
	writeSuccess(w, http.StatusOK, "Login successful", toAuthResponse(sess))
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	u, err := a.auth.Profile(r.Context(), caller.UserID)
	if err != nil {
		a.handleError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Profile retrieved successfully", profileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}
