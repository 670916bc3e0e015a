package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/internal/access/gate"
	"github.com/tair/stockroom/internal/access/usecase/command"
	"github.com/tair/stockroom/internal/access/usecase/query"
	"github.com/tair/stockroom/internal/httpapi"
	"github.com/tair/stockroom/pkg/auth"
	"github.com/tair/stockroom/pkg/logger"
)

// AccessHandler handles HTTP requests for accounts and employees
type AccessHandler struct {
	// Command handlers
	signupHandler         *command.SignupAdminHandler
	loginHandler          *command.LoginUserHandler
	logoutHandler         *command.LogoutUserHandler
	addEmployeeHandler    *command.AddEmployeeHandler
	removeEmployeeHandler *command.RemoveEmployeeHandler

	// Query handlers
	listEmployeesHandler *query.ListEmployeesHandler

	roles       domain.RoleSource
	roleTimeout time.Duration
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(
	signupHandler *command.SignupAdminHandler,
	loginHandler *command.LoginUserHandler,
	logoutHandler *command.LogoutUserHandler,
	addEmployeeHandler *command.AddEmployeeHandler,
	removeEmployeeHandler *command.RemoveEmployeeHandler,
	listEmployeesHandler *query.ListEmployeesHandler,
	roles domain.RoleSource,
	roleTimeout time.Duration,
) *AccessHandler {
	return &AccessHandler{
		signupHandler:         signupHandler,
		loginHandler:          loginHandler,
		logoutHandler:         logoutHandler,
		addEmployeeHandler:    addEmployeeHandler,
		removeEmployeeHandler: removeEmployeeHandler,
		listEmployeesHandler:  listEmployeesHandler,
		roles:                 roles,
		roleTimeout:           roleTimeout,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func toUserResponse(u *domain.User) userResponse {
	perms := []string(u.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role, Permissions: perms}
}

// Signup handles POST /api/auth/signup
func (h *AccessHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	user, err := h.signupHandler.Handle(r.Context(), command.SignupAdminCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusCreated, "Admin registered successfully", toUserResponse(user))
}

// Login handles POST /api/auth/login
func (h *AccessHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	resp, err := h.loginHandler.Handle(r.Context(), command.LoginUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Login successful", map[string]interface{}{
		"token": resp.Token,
		"user":  toUserResponse(resp.User),
	})
}

// Logout handles POST /api/auth/logout
func (h *AccessHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httpapi.RespondError(r.Context(), w, domain.ErrUnauthenticated)
		return
	}

	cmd := command.LogoutUserCommand{ActorID: claims.ActorID, TokenID: claims.TokenID()}
	if claims.ExpiresAt != nil {
		cmd.ExpiresAt = claims.ExpiresAt.Time
	}
	if err := h.logoutHandler.Handle(r.Context(), cmd); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Logged out", nil)
}

// ListEmployees handles GET /api/employees
func (h *AccessHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	users, err := h.listEmployeesHandler.Handle(r.Context())
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	employees := make([]userResponse, 0, len(users))
	for i := range users {
		employees = append(employees, toUserResponse(&users[i]))
	}
	httpapi.RespondOK(w, http.StatusOK, "", employees)
}

// AddEmployee handles POST /api/employees
func (h *AccessHandler) AddEmployee(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	user, err := h.addEmployeeHandler.Handle(r.Context(), command.AddEmployeeCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusCreated, "Employee registered successfully", toUserResponse(user))
}

// RemoveEmployee handles DELETE /api/employees?email=
func (h *AccessHandler) RemoveEmployee(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if err := h.removeEmployeeHandler.Handle(r.Context(), command.RemoveEmployeeCommand{Email: email}); err != nil {
		httpapi.RespondError(r.Context(), w, err)
		return
	}

	httpapi.RespondOK(w, http.StatusOK, "Employee removed successfully", nil)
}

// requireEmployeeManager resolves the caller's role and admits only roles
// that may manage employees
func (h *AccessHandler) requireEmployeeManager(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := gate.New(h.roles, h.roleTimeout)
		if _, err := g.ResolveRole(r.Context(), auth.ActorFromContext(r.Context())); err != nil {
			httpapi.RespondError(r.Context(), w, err)
			return
		}

		if err := g.Authorize(gate.ActionManageEmployees); err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Employee management denied")
			httpapi.RespondError(r.Context(), w, err)
			return
		}

		next(w, r)
	}
}

// RegisterRoutes registers the auth and employee routes. authenticate guards
// routes that need a logged-in caller; limit throttles the public auth routes.
func (h *AccessHandler) RegisterRoutes(router *mux.Router, authenticate, limit func(http.Handler) http.Handler) {
	public := router.PathPrefix("/api/auth").Subrouter()
	public.Handle("/signup", limit(http.HandlerFunc(h.Signup))).Methods("POST")
	public.Handle("/login", limit(http.HandlerFunc(h.Login))).Methods("POST")
	public.Handle("/logout", authenticate(http.HandlerFunc(h.Logout))).Methods("POST")

	employees := router.PathPrefix("/api/employees").Subrouter()
	employees.Use(authenticate)
	employees.HandleFunc("", h.requireEmployeeManager(h.ListEmployees)).Methods("GET")
	employees.HandleFunc("", h.requireEmployeeManager(h.AddEmployee)).Methods("POST")
	employees.HandleFunc("", h.requireEmployeeManager(h.RemoveEmployee)).Methods("DELETE")
}
