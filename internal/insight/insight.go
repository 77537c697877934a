// Package insight produces the one-line system status banner of the dashboard
// from the ledger aggregates, using Gemini when an API key is configured.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/retro-admin/dashboard/config"
	"github.com/retro-admin/dashboard/internal/ledger"
	"github.com/retro-admin/dashboard/types"
)

// Banner texts.
const (
	DefaultBanner = "STATUS DO SISTEMA: ESTÁVEL | NÚCLEOS OPERACIONAIS"
	EmptyBanner   = "STATUS DO SISTEMA: OPERACIONAL"
	ErrorBanner   = "ERRO NO MECANISMO DE IA: REVISÃO MANUAL NECESSÁRIA"
)

const (
	defaultModel = "gemini-2.5-flash"

	systemInstruction = "Você é um monitor de sistema de IA retro-industrial frio e eficiente. " +
		"Suas respostas devem ser em PORTUGUÊS, EM MAIÚSCULAS, autoritárias e breves."
	promptTemplate = "Analise estas estatísticas do sistema e forneça uma única mensagem de alerta " +
		"administrativa breve, brutal e de estilo industrial em português (máximo de 10 palavras): %s"
)

// Model generates text for a prompt under a system instruction.
type Model interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Service renders the status banner. Without a model it always returns DefaultBanner.
type Service struct {
	model  Model
	logger *zap.Logger
}

// New builds the service from config. An empty API key yields the static banner.
func New(ctx context.Context, cfg config.InsightConfig, logger *zap.Logger) (*Service, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewWithModel(nil, logger), nil
	}
	model, err := NewGemini(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		return nil, err
	}
	return NewWithModel(model, logger), nil
}

func NewWithModel(model Model, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{model: model, logger: logger}
}

// Enabled reports whether banners come from a model.
func (s *Service) Enabled() bool {
	return s != nil && s.model != nil
}

// Banner returns the status line for the given aggregates. Model failures are
// logged and rendered as ErrorBanner.
func (s *Service) Banner(ctx context.Context, summary ledger.Summary) string {
	if !s.Enabled() {
		return DefaultBanner
	}
	text, err := s.model.Generate(ctx, systemInstruction, fmt.Sprintf(promptTemplate, Stats(summary)))
	if err != nil {
		s.logger.Error("insight generation failed", zap.Error(err))
		return ErrorBanner
	}
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return EmptyBanner
	}
	return text
}

// Stats renders the aggregates as the compact text sent to the model.
func Stats(summary ledger.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "total=%d no_prazo=%d%% atrasadas=%d", summary.Total, summary.OnTimePercent, summary.Late())
	for _, status := range types.FulfillmentStatuses {
		fmt.Fprintf(&b, " %s=%d", strings.ToLower(string(status)), summary.ByStatus[status])
	}
	return b.String()
}

// Gemini is a Model backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}
