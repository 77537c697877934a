package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotAuthenticated is returned by store operations that need a signed in visitor.
var ErrNotAuthenticated = errors.New("not authenticated")

// ConfigurationError reports required settings that are absent.
// It is fatal: the dashboard only renders configuration instructions.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required settings: %s", strings.Join(e.Missing, ", "))
}

// AuthKind is the user-facing category of an authentication failure.
type AuthKind int

const (
	AuthUnknown AuthKind = iota
	AuthInvalidCredentials
	AuthDuplicateAccount
	AuthWeakPassword
	AuthInvalidEmail
	AuthRegistrationDisabled
	AuthEmailNotVerified
)

var authMessages = map[AuthKind]string{
	AuthUnknown:              "Ocorreu um erro inesperado.",
	AuthInvalidCredentials:   "E-mail ou senha inválidos.",
	AuthDuplicateAccount:     "Este e-mail já está cadastrado.",
	AuthWeakPassword:         "A senha deve ter pelo menos 8 caracteres.",
	AuthInvalidEmail:         "Digite um e-mail válido.",
	AuthRegistrationDisabled: "Cadastro bloqueado. Habilite o registro de usuários nas configurações de autenticação.",
	AuthEmailNotVerified:     "E-mail ainda não verificado. Verifique sua caixa de entrada para continuar.",
}

// AuthError is a recoverable authentication failure. Error returns the fixed
// message shown on the login form; the raw backend error is kept for logging.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	return authMessages[e.Kind]
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError wraps err under the given kind.
func NewAuthError(kind AuthKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

// MapAuthError classifies a raw backend failure by its error code (type) and message.
func MapAuthError(code, message string, err error) *AuthError {
	code = strings.ToLower(strings.TrimSpace(code))
	msg := strings.ToLower(message)
	if err == nil {
		err = errors.New(message)
	}

	switch {
	case code == "user_already_exists" || strings.Contains(msg, "already exists") || strings.Contains(msg, "already registered"):
		return NewAuthError(AuthDuplicateAccount, err)
	case code == "user_invalid_credentials" || code == "invalid_credentials" ||
		strings.Contains(msg, "invalid credentials") ||
		strings.Contains(msg, "invalid email or password") ||
		strings.Contains(msg, "invalid login credentials"):
		return NewAuthError(AuthInvalidCredentials, err)
	case strings.Contains(msg, "password") &&
		(strings.Contains(msg, "8") || strings.Contains(msg, "short") || strings.Contains(msg, "length")):
		return NewAuthError(AuthWeakPassword, err)
	case strings.Contains(msg, "email") && strings.Contains(msg, "invalid"):
		return NewAuthError(AuthInvalidEmail, err)
	case strings.Contains(msg, "guests are not allowed") || strings.Contains(msg, "missing scope") ||
		strings.Contains(msg, "signups not allowed"):
		return NewAuthError(AuthRegistrationDisabled, err)
	case code == "user_email_not_verified" || strings.Contains(msg, "not verified") ||
		strings.Contains(msg, "not confirmed"):
		return NewAuthError(AuthEmailNotVerified, err)
	default:
		return NewAuthError(AuthUnknown, err)
	}
}

// AsAuthError returns err as an *AuthError, classifying it when it is not one already.
func AsAuthError(err error) *AuthError {
	if err == nil {
		return nil
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return MapAuthError("", err.Error(), err)
}

// StoreError is a recoverable profile or activity store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Message returns the transient message shown to the user.
func (e *StoreError) Message() string {
	switch e.Op {
	case OpUpsertProfile:
		return "Erro ao atualizar perfil."
	case OpChangePassword:
		return "Erro ao trocar senha."
	case OpUploadAvatar:
		return "Erro ao salvar avatar."
	default:
		return "Erro ao carregar dados."
	}
}

// Store operations named in StoreError.
const (
	OpGetProfile     = "get profile"
	OpUpsertProfile  = "upsert profile"
	OpActivityLogs   = "get activity logs"
	OpChangePassword = "change password"
	OpUploadAvatar   = "upload avatar"
	OpRecordActivity = "record activity"
)
