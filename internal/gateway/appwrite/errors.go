package appwrite

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retro-admin/dashboard/internal/gateway"
)

const (
	statusUnauthorized = http.StatusUnauthorized
	statusNotFound     = http.StatusNotFound
)

var (
	// ErrNoAPIKey is returned by New when APPWRITE_API_KEY is unset.
	ErrNoAPIKey = errors.New("appwrite api key is not configured")

	errSessionSecret = errors.New("appwrite session has no secret")
)

// apiError is the part of an Appwrite error response the gateway maps.
type apiError struct {
	Status  int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// inspect reads status, type and message off an SDK error. The SDK error
// exposes them through getters; older releases only carry the response body.
func inspect(err error) (apiError, bool) {
	var out apiError
	if err == nil {
		return out, false
	}

	var coded interface{ GetStatusCode() int }
	if errors.As(err, &coded) {
		out.Status = coded.GetStatusCode()
	}
	var typed interface{ GetType() string }
	if errors.As(err, &typed) {
		out.Type = typed.GetType()
	}
	var described interface{ GetMessage() string }
	if errors.As(err, &described) {
		out.Message = described.GetMessage()
	}
	if out.Status != 0 && out.Type != "" {
		return out, true
	}

	var body apiError
	if json.Unmarshal([]byte(err.Error()), &body) == nil {
		if out.Status == 0 {
			out.Status = body.Status
		}
		if out.Type == "" {
			out.Type = body.Type
		}
		if out.Message == "" {
			out.Message = body.Message
		}
	}
	if out.Message == "" {
		out.Message = err.Error()
	}
	return out, out.Status != 0 || out.Type != ""
}

func isStatus(err error, status int) bool {
	apiErr, ok := inspect(err)
	return ok && apiErr.Status == status
}

func authError(err error) *gateway.AuthError {
	if apiErr, ok := inspect(err); ok {
		return gateway.MapAuthError(apiErr.Type, apiErr.Message, err)
	}
	return gateway.NewAuthError(gateway.AuthUnknown, err)
}
