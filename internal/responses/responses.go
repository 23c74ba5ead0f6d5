package responses

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FieldRule maps a failing struct field (optionally "Field.tag") to the error
// returned to the client.
type FieldRule struct {
	Message string
	Code    string
}

func SendErrorResponse(w http.ResponseWriter, statusCode int, message, code string) {
	SendJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// SendInternalError logs err and answers 500 with the error text appended.
func SendInternalError(w http.ResponseWriter, context string, err error) {
	log.Printf("%s: %v", context, err)
	SendErrorResponse(w, http.StatusInternalServerError, "Internal server error: "+err.Error(), CodeInternal)
}

func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

// SendValidationError reports the first failing field of a validator error.
// Rules are looked up as "Field.tag" first, then "Field".
func SendValidationError(w http.ResponseWriter, err error, rules map[string]FieldRule) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		SendErrorResponse(w, http.StatusBadRequest, err.Error(), CodeValidation)
		return
	}

	first := verrs[0]
	if rule, ok := rules[first.Field()+"."+first.Tag()]; ok {
		SendErrorResponse(w, http.StatusBadRequest, rule.Message, rule.Code)
		return
	}
	if rule, ok := rules[first.Field()]; ok {
		SendErrorResponse(w, http.StatusBadRequest, rule.Message, rule.Code)
		return
	}

	SendErrorResponse(w, http.StatusBadRequest, first.Field()+" failed on "+first.Tag(), CodeValidation)
}
