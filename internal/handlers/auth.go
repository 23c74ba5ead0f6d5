package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"streamsphere-api/internal/config"
	"streamsphere-api/internal/models"
	"streamsphere-api/internal/repository"
	"streamsphere-api/internal/responses"
	"streamsphere-api/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultResetPath = "/reset-password"

var signUpRules = map[string]responses.FieldRule{
	"Name":              {Message: "Name is required", Code: "INVALID_NAME"},
	"Email":             {Message: "A valid email is required", Code: "INVALID_EMAIL"},
	"Password.required": {Message: "Password is required", Code: "INVALID_PASSWORD"},
	"Password.min":      {Message: "Password must be at least 8 characters", Code: "PASSWORD_TOO_SHORT"},
	"Password.max":      {Message: "Password must be at most 72 characters", Code: "PASSWORD_TOO_LONG"},
	"Role":              {Message: "Invalid role. Must be 'user' or 'creator'", Code: "INVALID_ROLE"},
}

var signInRules = map[string]responses.FieldRule{
	"Email":    {Message: "A valid email is required", Code: "INVALID_EMAIL"},
	"Password": {Message: "Password is required", Code: "INVALID_PASSWORD"},
}

var resetRequestRules = map[string]responses.FieldRule{
	"Email": {Message: "A valid email is required", Code: "INVALID_EMAIL"},
}

var resetPasswordRules = map[string]responses.FieldRule{
	"Token":                {Message: "Invalid or expired reset token", Code: "INVALID_TOKEN"},
	"NewPassword.required": {Message: "New password is required", Code: "INVALID_PASSWORD"},
	"NewPassword.min":      {Message: "Password must be at least 8 characters", Code: "PASSWORD_TOO_SHORT"},
	"NewPassword.max":      {Message: "Password must be at most 72 characters", Code: "PASSWORD_TOO_LONG"},
}

type authResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

func SignUp(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body", responses.CodeInvalidRequestBody)
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		if err := utils.Validate.Struct(req); err != nil {
			responses.SendValidationError(w, err, signUpRules)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			responses.SendInternalError(w, "Failed to hash password", err)
			return
		}

		role := req.Role
		if role == "" {
			role = models.RoleUser
		}

		user := &models.User{
			ID:           uuid.NewString(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hashedPassword),
			Role:         role,
		}

		if err := deps.Users.Create(r.Context(), user); err != nil {
			if errors.Is(err, repository.ErrEmailTaken) {
				responses.SendErrorResponse(w, http.StatusConflict, "User already exists", "USER_ALREADY_EXISTS")
				return
			}
			responses.SendInternalError(w, "Database error during registration", err)
			return
		}

		token, err := issueSession(w, r, deps, user)
		if err != nil {
			responses.SendInternalError(w, "Failed to create session", err)
			return
		}

		responses.SendJSON(w, http.StatusCreated, authResponse{Token: token, User: user.Profile()})
	}
}

func SignIn(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body", responses.CodeInvalidRequestBody)
			return
		}

		req.Email = strings.TrimSpace(req.Email)

		if err := utils.Validate.Struct(req); err != nil {
			responses.SendValidationError(w, err, signInRules)
			return
		}

		user, err := deps.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				responses.SendErrorResponse(w, http.StatusUnauthorized, "Invalid email or password", "INVALID_EMAIL_OR_PASSWORD")
				return
			}
			responses.SendInternalError(w, "Database error during sign-in", err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			responses.SendErrorResponse(w, http.StatusUnauthorized, "Invalid email or password", "INVALID_EMAIL_OR_PASSWORD")
			return
		}

		token, err := issueSession(w, r, deps, user)
		if err != nil {
			responses.SendInternalError(w, "Failed to create session", err)
			return
		}

		responses.SendJSON(w, http.StatusOK, authResponse{Token: token, User: user.Profile()})
	}
}

func SignOut(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSession(r)

		if err := deps.Sessions.Delete(r.Context(), session.ID); err != nil {
			responses.SendInternalError(w, "Failed to sign out", err)
			return
		}

		clearSessionCookie(w, deps.Config)

		responses.SendJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Signed out successfully",
		})
	}
}

// CurrentSession answers with the caller's session and profile, or JSON null.
func CurrentSession(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r)
		if !ok {
			responses.SendJSON(w, http.StatusOK, nil)
			return
		}

		user, err := deps.Users.GetByID(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				responses.SendJSON(w, http.StatusOK, nil)
				return
			}
			responses.SendInternalError(w, "Failed to load session user", err)
			return
		}

		responses.SendJSON(w, http.StatusOK, map[string]interface{}{
			"session": session,
			"user":    user.Profile(),
		})
	}
}

// ForgetPassword always answers 200 so the endpoint cannot be used to probe
// which emails are registered.
func ForgetPassword(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ResetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body", responses.CodeInvalidRequestBody)
			return
		}

		req.Email = strings.TrimSpace(req.Email)

		if err := utils.Validate.Struct(req); err != nil {
			responses.SendValidationError(w, err, resetRequestRules)
			return
		}

		ok := map[string]interface{}{
			"status":  true,
			"message": "If an account exists for that email, a reset link has been sent.",
		}

		user, err := deps.Users.GetByEmail(r.Context(), req.Email)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Printf("Password reset lookup failed: %v", err)
			}
			responses.SendJSON(w, http.StatusOK, ok)
			return
		}

		token, err := utils.GenerateRandomToken(32)
		if err != nil {
			responses.SendInternalError(w, "Failed to generate reset token", err)
			return
		}

		expiresAt := time.Now().Add(deps.Config.ResetTokenTTL)
		if err := deps.Users.SetResetToken(r.Context(), user.ID, utils.HashToken(token), expiresAt); err != nil {
			responses.SendInternalError(w, "Failed to store reset token", err)
			return
		}

		link := resetLink(deps.Config.AppURL, req.RedirectTo, token)
		if err := deps.Mailer.SendResetEmail(user.Email, user.Name, link); err != nil {
			log.Printf("Failed to send reset email to %s: %v", user.Email, err)
		}

		responses.SendJSON(w, http.StatusOK, ok)
	}
}

func ResetPassword(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ResetPassword
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body", responses.CodeInvalidRequestBody)
			return
		}

		if err := utils.Validate.Struct(req); err != nil {
			responses.SendValidationError(w, err, resetPasswordRules)
			return
		}

		user, err := deps.Users.GetByResetToken(r.Context(), utils.HashToken(req.Token))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid or expired reset token", "INVALID_TOKEN")
				return
			}
			responses.SendInternalError(w, "Failed to verify reset token", err)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			responses.SendInternalError(w, "Failed to hash password", err)
			return
		}

		if err := deps.Users.ResetPassword(r.Context(), user.ID, string(hashedPassword)); err != nil {
			responses.SendInternalError(w, "Failed to reset password", err)
			return
		}

		responses.SendJSON(w, http.StatusOK, map[string]interface{}{
			"status":  true,
			"message": "Password has been reset. Please sign in again.",
		})
	}
}

func issueSession(w http.ResponseWriter, r *http.Request, deps *Deps, user *models.User) (string, error) {
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(deps.JWT.Expiration()),
	}

	if err := deps.Sessions.Create(r.Context(), session); err != nil {
		return "", err
	}

	token, err := deps.JWT.GenerateToken(session.ID, user.ID, user.Role, session.ExpiresAt)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     deps.Config.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   deps.Config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return token, nil
}

func clearSessionCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// resetLink only honours relative redirect paths.
func resetLink(appURL, redirectTo, token string) string {
	path := defaultResetPath
	if strings.HasPrefix(redirectTo, "/") && !strings.HasPrefix(redirectTo, "//") {
		path = redirectTo
	}
	return appURL + path + "?token=" + url.QueryEscape(token)
}
