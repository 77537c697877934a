package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retro-admin/dashboard/internal/app"
	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/internal/pagination"
	"github.com/retro-admin/dashboard/internal/profile"
	"github.com/retro-admin/dashboard/internal/services"
)

type contextKey string

const contextWorkspaceKey contextKey = "workspace"

const (
	msgBusy            = "Operação em andamento. Aguarde."
	msgUnexpected      = "Ocorreu um erro inesperado."
	msgInvalidPageSize = "Tamanho de página inválido."
	msgInvalidType     = "Tipo de requisição inválido."
	msgUnknownView     = "Visão desconhecida."
	msgMissingImage    = "Selecione uma imagem."
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func workspaceFromContext(ctx context.Context) (*services.Workspace, error) {
	ws, ok := ctx.Value(contextWorkspaceKey).(*services.Workspace)
	if !ok || ws == nil {
		return nil, errors.New("missing workspace")
	}
	return ws, nil
}

// userMessage maps err to the text shown to the visitor. Raw errors never reach the page.
func userMessage(err error) string {
	var authErr *gateway.AuthError
	var storeErr *gateway.StoreError
	switch {
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &storeErr):
		return storeErr.Message()
	case errors.Is(err, app.ErrBusy), errors.Is(err, profile.ErrBusy):
		return msgBusy
	case errors.Is(err, profile.ErrInvalidImage):
		return profile.ErrInvalidImage.Error()
	case errors.Is(err, profile.ErrImageTooLarge):
		return profile.ErrImageTooLarge.Error()
	case errors.Is(err, pagination.ErrInvalidPageSize):
		return msgInvalidPageSize
	case errors.Is(err, services.ErrInvalidRequestType):
		return msgInvalidType
	case errors.Is(err, app.ErrUnknownView):
		return msgUnknownView
	default:
		return msgUnexpected
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
