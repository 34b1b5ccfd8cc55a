package handler

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phoneRegex = regexp.MustCompile(`^\+?[1-9][0-9]{0,15}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	return v
}

type registerForm struct {
	Name       string   `validate:"required,min=2,max=100"`
	Email      string   `validate:"required,email"`
	Phone      string   `validate:"required,phone"`
	Password   string   `validate:"required,min=6"`
	Skills     string   `validate:"omitempty,max=500"`
	Bio        string   `validate:"omitempty,max=1000"`
	HourlyRate *float64 `validate:"omitempty,gte=0"`
}

type updateForm struct {
	Name       string   `validate:"required,min=2,max=100"`
	Email      string   `validate:"required,email"`
	Phone      string   `validate:"required,phone"`
	Skills     string   `validate:"omitempty,max=500"`
	Bio        string   `validate:"omitempty,max=1000"`
	HourlyRate *float64 `validate:"omitempty,gte=0"`
}

type profileRequest struct {
	Name       string   `json:"name" validate:"required,min=2,max=100"`
	Phone      string   `json:"phone" validate:"required,phone"`
	Skills     string   `json:"skills" validate:"omitempty,max=500"`
	Bio        string   `json:"bio" validate:"omitempty,max=1000"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var fieldMessages = map[string]string{
	"Name":       "Name must be between 2 and 100 characters",
	"Email":      "Please provide a valid email address",
	"Phone":      "Please provide a valid phone number",
	"Password":   "Password must be at least 6 characters long",
	"Skills":     "Skills description too long",
	"Bio":        "Bio description too long",
	"HourlyRate": "Hourly rate must be a positive number",
}

// validationErrors flattens validator output into a field -> message map.
// Returns nil when err is not a validation failure.
func validationErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = "Invalid value"
		}
		out[snakeCase(fe.Field())] = msg
	}
	return out
}

func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
