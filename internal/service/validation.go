package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/bagrut-dashboard-api/internal/eligibility"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
)

// registerValidations installs the domain tags used by request structs. Registration is
// idempotent, so every service may call it on a shared validator at startup.
func registerValidations(v *validator.Validate) {
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		_, ok := eligibility.ParseGrade(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("unit_load", func(fl validator.FieldLevel) bool {
		_, ok := eligibility.ParseUnitLoad(int(fl.Field().Int()))
		return ok
	})
	_ = v.RegisterValidation("spec1", func(fl validator.FieldLevel) bool {
		raw := strings.TrimSpace(fl.Field().String())
		return raw == "" || eligibility.ParseSpecialization1(raw) != eligibility.Spec1None
	})
	_ = v.RegisterValidation("spec2", func(fl validator.FieldLevel) bool {
		raw := strings.TrimSpace(fl.Field().String())
		return raw == "" || eligibility.ParseSpecialization2(raw) != eligibility.Spec2None
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(prefix string, err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return prefix
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return prefix + " (" + strings.Join(parts, ", ") + ")"
}
