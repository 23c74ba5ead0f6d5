package utils

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MinReleaseYear = 1800

	// MaxImageFileLength is the encoded length of a 5MB image; base64 is ~37% larger.
	MaxImageFileLength = 5 * 1024 * 1024 * 137 / 100
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	_ = Validate.RegisterValidation("releaseyear", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= MinReleaseYear && year <= int64(MaxReleaseYear(time.Now()))
	})

	_ = Validate.RegisterValidation("imagesize", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxImageFileLength
	})
}

// MaxReleaseYear is the latest release year accepted for a community movie.
func MaxReleaseYear(now time.Time) int {
	return now.Year() + 2
}
