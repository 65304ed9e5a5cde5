package resources

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/fieldwork/backoffice-api/internal/core/domain"
)

// Hook rewrites the attributes of a create or update payload in place.
type Hook func(attrs map[string]any) error

var builtinHooks = map[string]Hook{
	"users": HashPassword,
}

// HashPassword replaces a plain "password" attribute with its bcrypt hash
// under "passwordHash".
func HashPassword(attrs map[string]any) error {
	raw, ok := attrs["password"]
	if !ok {
		return nil
	}
	delete(attrs, "password")

	password, ok := raw.(string)
	if !ok || password == "" {
		return domain.NewValidationError("password must be a non-empty string")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	attrs["passwordHash"] = string(hash)
	return nil
}
