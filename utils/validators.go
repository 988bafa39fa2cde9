package utils

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var catalogIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// InitValidator registers the custom binding rules on gin's validator.
func InitValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterCustomValidators(v)
	}
}

func RegisterCustomValidators(v *validator.Validate) {
	_ = v.RegisterValidation("catalogid", ValidateCatalogIDRule)
	_ = v.RegisterValidation("lockscope", ValidateLockScopeRule)
	_ = v.RegisterValidation("leaderboardtype", ValidateLeaderboardTypeRule)
}

// ValidateCatalogIDRule accepts topic and algorithm ids: letters, digits,
// dashes and underscores.
func ValidateCatalogIDRule(fl validator.FieldLevel) bool {
	return ValidCatalogID(fl.Field().String())
}

func ValidCatalogID(id string) bool {
	return catalogIDPattern.MatchString(id)
}

func ValidateLockScopeRule(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "topic", "algorithm", "subject", "user":
		return true
	}
	return false
}

func ValidateLeaderboardTypeRule(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly", "all-time":
		return true
	}
	return false
}
