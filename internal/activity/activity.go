// Package activity records notable user actions in the backend's activity log,
// either directly or through the message queue and the worker command.
package activity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/gateway"
	"github.com/retro-admin/dashboard/types"
)

// Descriptions of the recorded actions.
const (
	DescLogin            = "Login efetuado"
	DescLogout           = "Logout efetuado"
	DescProfileUpdated   = "Perfil atualizado"
	DescAvatarUpdated    = "Avatar atualizado"
	DescPasswordChanged  = "Senha alterada"
	DescPasswordRejected = "Falha ao alterar senha"
)

// RequestGenerated describes the creation of a ledger entry.
func RequestGenerated(entry types.RequestEntry) string {
	return fmt.Sprintf("Requisição %s gerada (%s)", entry.ID, entry.Type.Label())
}

// LogSink writes events to the log only. It is used when no backend can
// persist activity.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) RecordActivity(_ context.Context, event types.ActivityEvent) error {
	s.Logger.Info("activity",
		zap.String("user_id", event.UserID),
		zap.String("description", event.Description),
		zap.String("status", event.Status),
	)
	return nil
}

// Recorder stamps events and hands them to a sink. Failures are logged and
// never reach the caller.
type Recorder struct {
	sink   gateway.ActivitySink
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder returns a recorder writing to sink, or to the log when sink is nil.
func NewRecorder(sink gateway.ActivitySink, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = LogSink{Logger: logger}
	}
	return &Recorder{sink: sink, logger: logger, now: time.Now}
}

// Record stores one event for userID. Anonymous events are dropped.
func (r *Recorder) Record(ctx context.Context, userID, description, status string) {
	if r == nil || userID == "" {
		return
	}
	if status == "" {
		status = types.ActivityStatusOK
	}
	event := types.ActivityEvent{
		UserID:      userID,
		Description: description,
		Status:      status,
		CreatedAt:   r.now().UTC(),
	}
	if err := r.sink.RecordActivity(ctx, event); err != nil {
		r.logger.Warn("record activity failed",
			zap.String("user_id", userID),
			zap.String("description", description),
			zap.Error(err),
		)
	}
}
