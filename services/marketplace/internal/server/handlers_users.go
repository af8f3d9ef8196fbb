package server

import (
	"net/http"

	"marketplace/internal/usertoken"
	"marketplace/pkg/domain"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Role     domain.UserRole `json:"role"`
}

func viewUser(u domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.registerLimiter, "too many registration attempts") {
		return
	}
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.app.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.audit(r, "marketplace.register", "fail", "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "marketplace.register", "success", "user_id", user.ID, "role", user.Role)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		return
	}
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, user, err := s.app.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.audit(r, "marketplace.login", "fail", "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "marketplace.login", "success", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    viewUser(user),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ usertoken.Identity) {
	users, err := s.app.ListUsers(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request, admin usertoken.Identity) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req roleUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "marketplace.admin.role_update", "success", "user_id", admin.UserID, "target_user_id", id, "role", req.Role)
	writeMessage(w, http.StatusOK, "User role updated successfully")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, admin usertoken.Identity) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.app.DeleteUser(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "marketplace.admin.user_delete", "success", "user_id", admin.UserID, "target_user_id", id)
	writeMessage(w, http.StatusOK, "User deleted successfully")
}
