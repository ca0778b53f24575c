package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// Handler exposes HTTP endpoints for signup, login, logout and "me".
type Handler struct {
	svc    *Service
	cookie token.CookieConfig
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, cookie token.CookieConfig, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, cookie: cookie, logger: logger}
}

// SignupRequest request body for signup endpoint.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account. Role uses the external spelling.
type UserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	GoogleID    *string   `json:"googleId"`
	PhotoURL    *string   `json:"photoUrl"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IdentityResponse is the body of GET /me.
type IdentityResponse struct {
	User struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role.External(),
		GoogleID:    u.GoogleID,
		PhotoURL:    u.PhotoURL,
		Description: u.Description,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, message("invalid payload"))
		return
	}
	sess, err := h.svc.Signup(r.Context(), SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.writeError(w, "signup", err)
		return
	}
	token.SetCookie(w, h.cookie, sess.Token)
	h.writeJSON(w, http.StatusCreated, NewUserResponse(sess.User))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, message("invalid payload"))
		return
	}
	sess, err := h.svc.Login(r.Context(), LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		h.writeError(w, "login", err)
		return
	}
	token.SetCookie(w, h.cookie, sess.Token)
	h.writeJSON(w, http.StatusOK, NewUserResponse(sess.User))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		h.writeError(w, "logout", err)
		return
	}
	token.ClearCookie(w, h.cookie)
	h.writeJSON(w, http.StatusOK, message("logout successfully"))
}

// Me must be mounted behind token.RequireSession.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := token.UserIDFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, message("unauthorized"))
		return
	}
	v, err := h.svc.CurrentIdentity(r.Context(), userID)
	if err != nil {
		h.writeError(w, "me", err)
		return
	}
	var resp IdentityResponse
	resp.User.Name = v.Name
	resp.User.Email = v.Email
	resp.User.Role = v.Role.External()
	h.writeJSON(w, http.StatusOK, resp)
}

// writeError maps classified errors to status codes. Internal errors are
// logged in full and answered with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	kind := Classify(err)
	switch kind {
	case KindValidation:
		h.writeJSON(w, http.StatusBadRequest, message(publicMessage(err)))
	case KindConflict:
		h.writeJSON(w, http.StatusConflict, message(ErrUserExists.Error()))
	case KindAuthentication:
		h.writeJSON(w, http.StatusUnauthorized, message(publicMessage(err)))
	case KindToken:
		h.writeJSON(w, http.StatusUnauthorized, message("unauthorized"))
	case KindNotFound:
		h.writeJSON(w, http.StatusNotFound, message(ErrNotFound.Error()))
	default:
		h.logger.Errorw(op+" failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, message(op+" error"))
		return
	}
	h.logger.Debugw(op+" rejected", "kind", kind.String(), "err", err)
}

// publicMessage returns the message of the sentinel err wraps.
func publicMessage(err error) string {
	for _, s := range []error{
		ErrEmptyFields, ErrInvalidEmail, ErrWeakPassword, ErrInvalidRole,
		ErrNoSuchUser, ErrFederationOnly, ErrInvalidCredentials,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if errors.Is(err, entity.ErrInvalidRole) {
		return ErrInvalidRole.Error()
	}
	return "bad request"
}

func message(m string) map[string]string {
	return map[string]string{"message": m}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
