package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retro-admin/dashboard/internal/ledger"
	"github.com/retro-admin/dashboard/internal/pagination"
	"github.com/retro-admin/dashboard/internal/profile"
	"github.com/retro-admin/dashboard/types"
)

func sampleEntries() []types.RequestEntry {
	return []types.RequestEntry{
		{ID: "ABC123XYZ", Method: types.MethodGet, Type: types.RequestCompra, Endpoint: "/auth/login", Status: 200, Timestamp: "10:00:00", Latency: "120ms", ExpectedDate: "01/01/2026", AttendedOnTime: true, FulfillmentStatus: types.FulfillmentDone},
		{ID: "DEF456UVW", Method: types.MethodDelete, Type: types.RequestUnidadeDeVida, Endpoint: "/system/config", Status: 500, Timestamp: "10:01:00", Latency: "80ms", ExpectedDate: "02/01/2026", FulfillmentStatus: types.FulfillmentPending},
	}
}

func dashboardData(view types.View) DashboardData {
	user := "ops@example.com"
	entries := sampleEntries()
	return DashboardData{
		State:           types.AppState{CurrentPage: types.PageDashboard, CurrentView: view, User: &user},
		Title:           view.Title(),
		Nav:             Navigation(view),
		User:            user,
		Banner:          "STATUS DO SISTEMA: ESTÁVEL",
		Requests:        pagination.Paginate(entries, 1, 1),
		PageSizes:       pagination.PageSizes,
		RequestTypes:    RequestTypeButtons(),
		Entries:         entries,
		Report:          ledger.Summarize(entries),
		Profile:         profile.Snapshot{Profile: types.ProfileRecord{FullName: "OPERADOR", Role: profile.DefaultRole}},
		PlaceholderLogs: PlaceholderLogs,
		Permissions:     Permissions,
		Weekly:          WeeklyBars(),
		Tasks:           RecentTasks,
		Flow:            DataFlow,
		Settings:        SettingsTables,
	}
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func TestRenderLogin(t *testing.T) {
	t.Run("sign in", func(t *testing.T) {
		out := render(t, LoginPage(LoginData{Email: "a@b.com", Error: "Credenciais inválidas"}))
		assert.Contains(t, out, `action="/login"`)
		assert.Contains(t, out, "ERRO_SISTEMA: Credenciais inválidas")
		assert.Contains(t, out, `value="a@b.com"`)
	})

	t.Run("sign up in dark mode", func(t *testing.T) {
		out := render(t, LoginPage(LoginData{SignUp: true, Dark: true}))
		assert.Contains(t, out, `action="/signup"`)
		assert.Contains(t, out, `class="dark"`)
		assert.Contains(t, out, "CADASTRAR")
	})
}

func TestRenderConfig(t *testing.T) {
	out := render(t, ConfigPage(ConfigData{
		Backend:  "appwrite",
		Missing:  []string{"APPWRITE_ENDPOINT", "APPWRITE_PROJECT_ID"},
		Settings: []string{"APPWRITE_ENDPOINT", "APPWRITE_PROJECT_ID"},
	}))
	assert.Contains(t, out, "Configuração Incompleta")
	assert.Contains(t, out, "APPWRITE_ENDPOINT=SEU_VALOR")
	assert.Contains(t, out, "APPWRITE_ENDPOINT, APPWRITE_PROJECT_ID")
}

func TestRenderDashboardViews(t *testing.T) {
	tests := []struct {
		view types.View
		want []string
	}{
		{types.ViewOverview, []string{"Auditar IA", "Visão Geral", "STATUS DO SISTEMA: ESTÁVEL"}},
		{types.ViewRequests, []string{"Central de Requisições", "ABC123XYZ", "Mostrando 1-1 de 2 requisições"}},
		{types.ViewReports, []string{"Relatório de Atendimento", "50% NO PRAZO", "ATRASADA", "2 REQS"}},
		{types.ViewSettings, []string{"Configurações de Tabelas", "NÚCLEO_EQUIP_DB"}},
		{types.ViewAdmin, []string{"OPERADOR", "Editar Perfil", "ACESSO À CENTRAL DE REQUISIÇÕES", "AUDIT_IA"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			out := render(t, DashboardPage(dashboardData(tt.view)))
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
			assert.Contains(t, out, "USUÁRIO: ops@example.com")
			assert.NotContains(t, out, "SAIR AGORA")
		})
	}
}

func TestRenderDashboardBannerOnlyOnOverview(t *testing.T) {
	out := render(t, DashboardPage(dashboardData(types.ViewReports)))
	assert.NotContains(t, out, "Auditar IA")
}

func TestRenderEmptyRequests(t *testing.T) {
	data := dashboardData(types.ViewRequests)
	data.Requests = pagination.Paginate([]types.RequestEntry(nil), 10, 1)
	out := render(t, DashboardPage(data))
	assert.Contains(t, out, "Nenhuma requisição emitida até o momento.")
	assert.NotContains(t, out, "Mostrando")
}

func TestRenderModals(t *testing.T) {
	data := dashboardData(types.ViewRequests)
	data.CreateOpen = true
	data.State.IsLogoutModalOpen = true
	out := render(t, DashboardPage(data))
	assert.Contains(t, out, "SELECIONE O NÚCLEO DE REQUISIÇÃO")
	assert.Contains(t, out, `value="UNIDADE_DE_VIDA"`)
	assert.Contains(t, out, `action="/logout/confirm"`)
	assert.Contains(t, out, "CANCELAR E VOLTAR")
}

func TestRenderEditingProfile(t *testing.T) {
	data := dashboardData(types.ViewAdmin)
	data.Profile.Mode = profile.Editing
	data.Profile.Draft = profile.Draft{FullName: "NOVO NOME", Role: "Analista"}
	out := render(t, DashboardPage(data))
	assert.Contains(t, out, `value="NOVO NOME"`)
	assert.Contains(t, out, "SALVAR ALTERAÇÕES")
	assert.NotContains(t, out, "Editar Perfil")
}

func TestRenderAvatarURL(t *testing.T) {
	data := dashboardData(types.ViewAdmin)

	stored := "/avatars/u1/a.jpg"
	data.Profile.Profile.AvatarURL = &stored
	assert.Contains(t, render(t, DashboardPage(data)), `src="/avatars/u1/a.jpg"`)

	hostile := "javascript:alert(1)"
	data.Profile.Profile.AvatarURL = &hostile
	assert.NotContains(t, render(t, DashboardPage(data)), "javascript:")
}

func TestRenderEscapesUserText(t *testing.T) {
	data := dashboardData(types.ViewAdmin)
	data.Profile.Profile.FullName = `<script>alert("x")</script>`
	out := render(t, DashboardPage(data))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestFlash(t *testing.T) {
	assert.Empty(t, render(t, Flash("", "info")))
	assert.Equal(t, `<div class="alert alert-error">Falha &amp; erro</div>`, render(t, Flash("Falha & erro", "error")))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestRenderReportsWriteError(t *testing.T) {
	err := LoginPage(LoginData{}).Render(context.Background(), failingWriter{})
	assert.EqualError(t, err, "closed")
}
