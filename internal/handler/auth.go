package handler

import (
    "context"   // provides context with cancellation for DB calls
    "errors"    // sentinel error comparisons
    "net/http"  // HTTP status codes and primitives
    "strings"   // string manipulation utilities
    "time"      // timeouts for DB calls and expiry checks

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/training-platform/internal/config"     // app configuration
    "github.com/iliyamo/training-platform/internal/model"      // typed roles and user records
    "github.com/iliyamo/training-platform/internal/queue"      // account event payloads
    "github.com/iliyamo/training-platform/internal/repository" // sentinel store errors
    "github.com/iliyamo/training-platform/internal/utils"      // token issuing and hashing helpers
)

// UserStore is the credential-store contract the auth handlers depend
// on. *repository.UserRepo satisfies it; tests substitute an in-memory
// implementation.
type UserStore interface {
	Create(ctx context.Context, name, email, password, phone string, role model.Role, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetRefresh(ctx context.Context, userID uint64, hash string, exp time.Time) error
	RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	ClearRefresh(ctx context.Context, userID uint64) error
	UpdatePassword(ctx context.Context, userID uint64, newHash string) error
	UpdateEmail(ctx context.Context, userID uint64, email string) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

// EventPublisher emits account events to the broker. Publishing is
// best-effort: failures are logged by the publisher, never surfaced to
// the client.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Events EventPublisher
}

func NewAuthHandler(cfg config.Config, users UserStore, events EventPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Events: events}
}

// ----- DTOs -----

type registerReq struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // ADMIN | COMPANY | SUPERVISOR | TRAINEE
	Phone    string `json:"phone"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
type changeEmailReq struct {
	NewEmail string `json:"new_email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register: create a user account. Unlike login, registration does not
// hand out tokens; the client authenticates afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	// Field-level validation errors are collected and returned together.
	fields := map[string]string{}
	if req.FullName == "" {
		fields["full_name"] = "required"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "valid email required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "minimum 8 characters"
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		fields["role"] = "must be one of ADMIN, COMPANY, SUPERVISOR, TRAINEE"
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.FullName, req.Email, req.Password, req.Phone, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	if h.Events != nil {
		// Fire-and-forget; registration succeeds even if the broker is down.
		_ = h.Events.PublishUserRegistered(ctx, queue.NewUserRegisteredEvent(uid, req.FullName, req.Email, string(role)))
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": "registration successful"})
}

// Login: verify credentials and return a fresh token pair. The new
// refresh token overwrites any previous one on the user record, so at
// most one live refresh token exists per user.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same message as a bad password: no user enumeration.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Users.SetRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: string(u.Role)},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// Refresh exchanges an expired access token plus its paired refresh
// token for a rotated pair. The checks run in a fixed order and every
// rejection leaves stored state untouched:
//
//  1. both tokens present, else 400
//  2. access token still fully valid -> 400, refresh is refused
//  3. signature-only subject extraction; failure -> 401
//  4. user lookup by subject; unknown -> 401
//  5. presented refresh token hash must equal the stored one -> 401
//  6. stored refresh expiry must be in the future -> 401
//  7. mint a new pair and persist it with a conditional update keyed
//     on the old hash; a lost race -> 401
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	accessRaw := strings.TrimSpace(req.AccessToken)
	refreshRaw := strings.TrimSpace(req.RefreshToken)
	if accessRaw == "" || refreshRaw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "access_token and refresh_token required"})
	}

	// A still-valid access token means there is nothing to refresh;
	// refusing here keeps the refresh token's exposure window small.
	if utils.ValidateAccessToken(h.Cfg.JWTSecret, accessRaw) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "access token still valid"})
	}

	// The signature must still verify even though the token is expired:
	// that alone proves the token was issued by us and names its owner.
	subject, err := utils.SubjectIgnoringExpiry(h.Cfg.JWTSecret, accessRaw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	presentedHash := utils.HashRefreshRaw(refreshRaw)
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != presentedHash {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if u.RefreshTokenExpiresAt == nil || time.Now().UTC().After(*u.RefreshTokenExpiresAt) {
		// Past the absolute window: the client must log in again.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	newRef, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	// Rotation: the conditional update invalidates the old refresh token
	// and installs the new one in a single step, so a replayed old token
	// can never pass the comparison again.
	err = h.Users.RotateRefresh(ctx, u.ID, presentedHash, utils.HashRefreshRaw(newRef.Raw), newRef.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshMismatch) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: string(u.Role)},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: newRef.Raw, Expires: newRef.Exp},
	})
}

// Logout: clear the stored refresh token for the presented session.
// The client identifies the session by its refresh token; the matching
// stored hash is required so one user cannot log out another.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	refreshRaw := strings.TrimSpace(req.RefreshToken)

	// The access token names the user; expiry does not matter for logout.
	subject, err := utils.SubjectIgnoringExpiry(h.Cfg.JWTSecret, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid access token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.RefreshTokenHash == nil || *u.RefreshTokenHash != utils.HashRefreshRaw(refreshRaw) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Users.ClearRefresh(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword: verify the current password, store the new hash and
// clear the refresh token so existing sessions must re-authenticate.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.CurrentPassword == "" || len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password required, new_password minimum 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	newHash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePassword(ctx, uid, newHash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	// Ending existing sessions is part of the contract of a password
	// change; a failure here must not be reported as success.
	if err := h.Users.ClearRefresh(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session cleanup failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// ChangeEmail: verify the password and update the account email.
func (h *AuthHandler) ChangeEmail(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changeEmailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.NewEmail = strings.ToLower(strings.TrimSpace(req.NewEmail))
	if req.NewEmail == "" || !strings.Contains(req.NewEmail, "@") || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_email and password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err := h.Users.UpdateEmail(ctx, uid, req.NewEmail); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email changed"})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}

// ListUsers: admin surface, gated by RequirePermission upstream.
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListUsers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: string(u.Role)})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// currentUserID pulls the subject set by the JWT middleware out of the
// request context.
func currentUserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get("user_id").(uint64)
	return v, ok
}
