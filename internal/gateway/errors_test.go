package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapAuthError(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		want    AuthKind
	}{
		{"duplicate by code", "user_already_exists", "", AuthDuplicateAccount},
		{"duplicate by message", "", "A user with the same id, email, or phone already exists in this project.", AuthDuplicateAccount},
		{"invalid credentials by code", "user_invalid_credentials", "", AuthInvalidCredentials},
		{"invalid credentials by message", "", "Invalid credentials. Please check the email and password.", AuthInvalidCredentials},
		{"invalid login credentials", "", "Invalid login credentials", AuthInvalidCredentials},
		{"short password", "", "Invalid `password` param: Password must be at least 8 characters", AuthWeakPassword},
		{"invalid email", "", "Invalid `email` param: Value must be a valid email address", AuthInvalidEmail},
		{"guests blocked", "", "User (role: guests) missing scope (account)", AuthRegistrationDisabled},
		{"signups disabled", "", "Signups not allowed for this instance", AuthRegistrationDisabled},
		{"not verified", "user_email_not_verified", "", AuthEmailNotVerified},
		{"unknown", "general_unknown", "boom", AuthUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapAuthError(tt.code, tt.message, nil)
			assert.Equal(t, tt.want, got.Kind)
			assert.NotEmpty(t, got.Error())
		})
	}
}

func TestAuthErrorKeepsRawError(t *testing.T) {
	raw := errors.New("upstream 401")
	err := fmt.Errorf("sign in: %w", MapAuthError("user_invalid_credentials", "", raw))

	assert.ErrorIs(t, err, raw)
	assert.Equal(t, "E-mail ou senha inválidos.", AsAuthError(err).Error())
}

func TestAsAuthErrorClassifiesPlainErrors(t *testing.T) {
	assert.Nil(t, AsAuthError(nil))
	assert.Equal(t, AuthInvalidEmail, AsAuthError(errors.New("email is invalid")).Kind)
	assert.Equal(t, "Ocorreu um erro inesperado.", AsAuthError(errors.New("connection reset")).Error())
}

func TestStoreErrorMessage(t *testing.T) {
	err := &StoreError{Op: OpUpsertProfile, Err: errors.New("timeout")}
	assert.Equal(t, "upsert profile: timeout", err.Error())
	assert.Equal(t, "Erro ao atualizar perfil.", err.Message())

	var target *StoreError
	assert.True(t, errors.As(fmt.Errorf("save: %w", err), &target))
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"APPWRITE_ENDPOINT", "APPWRITE_PROJECT_ID"}}
	assert.Equal(t, "missing required settings: APPWRITE_ENDPOINT, APPWRITE_PROJECT_ID", err.Error())
}
