package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"streamsphere-api/internal/models"
	"streamsphere-api/internal/repository"
	"streamsphere-api/internal/responses"
	"streamsphere-api/internal/utils"
)

var profileRules = map[string]responses.FieldRule{
	"Name":                 {Message: "Name must be a non-empty string", Code: "INVALID_NAME"},
	"ImageFile.startswith": {Message: "Invalid image format. Must be a base64 encoded image", Code: "INVALID_IMAGE_FORMAT"},
	"ImageFile.imagesize":  {Message: "Image file is too large. Maximum size is 5MB", Code: "IMAGE_TOO_LARGE"},
}

func sendUserNotFound(w http.ResponseWriter) {
	responses.SendErrorResponse(w, http.StatusNotFound, "User not found", responses.CodeUserNotFound)
}

func GetProfile(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSession(r)

		user, err := users.GetByID(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				sendUserNotFound(w)
				return
			}
			responses.SendInternalError(w, "GET /api/user/profile error", err)
			return
		}

		responses.SendJSON(w, http.StatusOK, user.Profile())
	}
}

func UpdateProfile(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSession(r)

		var req models.UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body", responses.CodeInvalidRequestBody)
			return
		}

		if !req.Name.Set && !req.Image.Set && !req.ImageFile.Set {
			responses.SendErrorResponse(w, http.StatusBadRequest, "No fields to update", "NO_FIELDS")
			return
		}

		var update models.ProfileUpdate
		// Image type errors are reported after name validation.
		var imageErr *responses.FieldRule

		if req.Name.Set {
			name := strings.TrimSpace(req.Name.Value())
			update.Name = &name
		}

		// imageFile wins over image when both are sent.
		switch {
		case req.ImageFile.Set:
			update.ImageSet = true
			switch {
			case req.ImageFile.Null:
			case req.ImageFile.Valid:
				file := req.ImageFile.String
				update.ImageFile = &file
			default:
				rule := profileRules["ImageFile.startswith"]
				imageErr = &rule
			}
		case req.Image.Set:
			update.ImageSet = true
			switch {
			case req.Image.Null:
			case req.Image.Valid:
				if image := strings.TrimSpace(req.Image.String); image != "" {
					update.ImageURL = &image
				}
			default:
				imageErr = &responses.FieldRule{Message: "Image must be a URL string or null", Code: "INVALID_IMAGE_URL"}
			}
		}

		if err := utils.Validate.Struct(update); err != nil {
			responses.SendValidationError(w, err, profileRules)
			return
		}
		if imageErr != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, imageErr.Message, imageErr.Code)
			return
		}

		user, err := users.UpdateProfile(r.Context(), session.UserID, update)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				sendUserNotFound(w)
				return
			}
			responses.SendInternalError(w, "PUT /api/user/profile error", err)
			return
		}

		responses.SendJSON(w, http.StatusOK, user.Profile())
	}
}

// SwitchRole moves the caller between the user and creator roles. The current
// role is read from the store, never from the session claims.
func SwitchRole(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSession(r)

		var req models.SwitchRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body", responses.CodeInvalidRequestBody)
			return
		}

		role := req.Role.Value()
		if !req.Role.Set || req.Role.Null || (req.Role.Valid && role == "") {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Role is required", "ROLE_REQUIRED")
			return
		}
		if !req.Role.Valid || !models.ValidRole(role) {
			responses.SendErrorResponse(w, http.StatusBadRequest, "Invalid role. Must be 'user' or 'creator'", "INVALID_ROLE")
			return
		}

		current, err := users.GetByID(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				sendUserNotFound(w)
				return
			}
			responses.SendInternalError(w, "POST /api/user/switch-role error", err)
			return
		}

		if current.Role == role {
			responses.SendErrorResponse(w, http.StatusBadRequest, "You are already a "+role, "SAME_ROLE")
			return
		}

		updated, err := users.UpdateRole(r.Context(), current.ID, role)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				sendUserNotFound(w)
				return
			}
			responses.SendInternalError(w, "POST /api/user/switch-role error", err)
			return
		}

		responses.SendJSON(w, http.StatusOK, models.RoleChangeResponse{
			Success: true,
			Message: "Successfully switched to " + role + " role",
			User:    updated.Profile(),
		})
	}
}

// UpgradeToCreator is the one-way user to creator transition.
func UpgradeToCreator(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := GetSession(r)

		current, err := users.GetByID(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				sendUserNotFound(w)
				return
			}
			responses.SendInternalError(w, "POST /api/user/upgrade-to-creator error", err)
			return
		}

		if current.Role == models.RoleCreator {
			responses.SendErrorResponse(w, http.StatusBadRequest, "You are already a creator", "ALREADY_CREATOR")
			return
		}

		updated, err := users.UpdateRole(r.Context(), current.ID, models.RoleCreator)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				responses.SendErrorResponse(w, http.StatusInternalServerError, "Failed to upgrade account", "UPGRADE_FAILED")
				return
			}
			responses.SendInternalError(w, "POST /api/user/upgrade-to-creator error", err)
			return
		}

		responses.SendJSON(w, http.StatusOK, models.RoleChangeResponse{
			Success: true,
			Message: "Successfully upgraded to creator account",
			User:    updated.Profile(),
		})
	}
}
