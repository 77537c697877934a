package ui

import (
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/retro-admin/dashboard/internal/profile"
	"github.com/retro-admin/dashboard/types"
)

const marqueeText = "STATUS DO SISTEMA: OTIMIZADO | VPN: ESTÁVEL | FIREWALL: ATIVO | CRIPTOGRAFIA: AES-256 | PRÓXIMA_SINCRONIA: 04:00:00 | AVISO: PICO DE MEMÓRIA DETECTADO NO NODE_04 | TODOS OS SISTEMAS OPERACIONAIS..."

const emptyLedgerRow = "Nenhuma requisição emitida até o momento."

// DashboardPage renders the shell and the current view.
func DashboardPage(data DashboardData) templ.Component {
	body := component(func(m *markup) {
		m.raw(`<div class="shell">`)
		m.render(Sidebar(data.Nav))

		m.raw(`<main class="content">`)
		m.render(topbar(data))
		m.raw(`<div class="page">`)
		m.render(Flash(data.Notice, "info"))
		m.render(Flash(data.Error, "error"))

		switch data.State.CurrentView {
		case types.ViewOverview:
			m.render(OracleBanner(data.Banner))
			m.render(OverviewView(data))
		case types.ViewRequests:
			m.render(RequestsView(data))
		case types.ViewReports:
			m.render(ReportsView(data))
		case types.ViewSettings:
			m.render(SettingsView(data.Settings))
		case types.ViewAdmin:
			m.render(AdminView(data))
		}

		m.raw(`<footer class="footer mono upper tiny"><div class="footer-row"><span>UPTIME_SISTEMA: 99.98%</span><span>LOC: SAO_PAULO_BR</span><span>USUÁRIO: `)
		m.text(data.User)
		m.raw(`</span></div>© 2024 ADMIN RETRO BRUTALISTA · AUTORIZAÇÃO NÍVEL 7 APENAS</footer>`)
		m.raw(`</div></main>`)

		m.raw(`<div class="marquee mono"><div class="marquee-inner">`, marqueeText, `</div></div>`)
		if data.State.IsLogoutModalOpen {
			m.render(LogoutModal())
		}
		m.raw(`</div>`)
	})
	return Layout(data.Title+" · RETRO_UI", data.Dark, body)
}

// Sidebar renders the navigation, one form per view.
func Sidebar(items []NavItem) templ.Component {
	return component(func(m *markup) {
		m.raw(`<aside class="sidebar"><div class="brand">▦ RETRO_UI</div><nav class="nav">`)
		for _, item := range items {
			m.raw(`<form method="post" action="/dashboard/navigate"><input type="hidden" name="view"`)
			m.attr("value", string(item.View))
			m.raw(`><button type="submit"`)
			m.attr("class", classes("nav-item", when(item.Active, "active")))
			m.raw(`><span class="icon">`)
			m.text(item.Icon)
			m.raw(`</span>`)
			m.text(item.Label)
			m.raw(`</button></form>`)
		}
		m.raw(`</nav><form method="post" action="/logout"><button type="submit" class="nav-logout">⏻ Encerrar Sessão</button></form>`)
		m.raw(`<div class="build mono">v.1.0.4 BUILD 9921</div></aside>`)
	})
}

func topbar(data DashboardData) templ.Component {
	return component(func(m *markup) {
		m.raw(`<header class="topbar"><h1 class="title-lg">`)
		m.text(data.Title)
		m.raw(`</h1><div class="topbar-actions">`)
		theme := "☾"
		if data.Dark {
			theme = "☀"
		}
		m.raw(`<form method="post" action="/theme"><button type="submit" class="icon-btn" title="Alternar tema">`, theme, `</button></form>`)
		m.raw(`<form method="post" action="/logout"><button type="submit" class="icon-btn danger-hover" title="Sair">⏻</button></form>`)
		m.raw(`<form method="post" action="/dashboard/navigate"><input type="hidden" name="view" value="ADMIN"><button type="submit" class="avatar-btn"`)
		m.attr("title", data.User)
		m.raw(`>☻</button></form></div></header>`)
	})
}

// OracleBanner renders the AI status line with its refresh button.
func OracleBanner(banner string) templ.Component {
	return component(func(m *markup) {
		m.raw(`<div class="oracle"><div class="oracle-text"><span class="tiny mono upper faded">SISTEMA ORÁCULO IA // STATUS: ATIVO</span><span class="oracle-banner">`)
		m.text(banner)
		m.raw(`</span></div><form method="post" action="/insight"><button type="submit" class="btn btn-dark">Auditar IA</button></form></div>`)
	})
}

// LogoutModal asks for confirmation before ending the session.
func LogoutModal() templ.Component {
	return component(func(m *markup) {
		m.raw(`<div class="modal">`)
		m.raw(`<form method="post" action="/logout/cancel" class="modal-backdrop-form"><button type="submit" class="modal-backdrop" aria-label="Cancelar"></button></form>`)
		m.raw(`<section class="card modal-box text-center dots"><h2 class="title-lg ruled">SAIR AGORA</h2>`)
		m.raw(`<p class="upper bold small">Você confirma e atenta agora sessões. Tem certeza que deseja encerrar?</p>`)
		m.raw(`<form method="post" action="/logout/confirm"><button type="submit" class="btn btn-danger btn-block">SAIR AGORA</button></form>`)
		m.raw(`<form method="post" action="/logout/cancel"><button type="submit" class="link upper small">CANCELAR E VOLTAR</button></form>`)
		m.raw(`</section></div>`)
	})
}

// OverviewView renders the static operational cards.
func OverviewView(data DashboardData) templ.Component {
	return component(func(m *markup) {
		m.raw(`<div class="grid-12"><section class="card card-dark span-8"><h2 class="card-title">Visão Geral</h2>`)
		m.raw(`<p class="card-subtitle">Estatísticas de processos para o período atual.</p><div class="chart">`)
		for _, bar := range data.Weekly {
			m.raw(`<div class="chart-col"><div class="chart-bar" style="height: `)
			m.number(bar.Height)
			m.raw(`%; background: `)
			m.text(bar.Color)
			m.raw(`" title="`)
			m.number(bar.Value)
			m.raw(`"></div><span>`)
			m.text(bar.Name)
			m.raw(`</span></div>`)
		}
		m.raw(`</div></section>`)

		m.raw(`<section class="card card-cyan span-4 flush"><h2 class="card-head">Tarefas Recentes</h2><ul class="task-list mono">`)
		for _, task := range data.Tasks {
			m.raw(`<li><span>`)
			m.text(task.Title)
			m.raw(`</span><span`)
			m.attr("class", classes("task-time", when(task.New, "new")))
			m.raw(`>`)
			m.text(task.Time)
			m.raw(`</span></li>`)
		}
		m.raw(`</ul></section>`)

		m.raw(`<section class="card card-orange span-4"><h2 class="card-title">Fluxo de Dados</h2><div class="spark">`)
		for _, height := range data.Flow {
			m.raw(`<div style="height: `)
			m.number(height)
			m.raw(`%"></div>`)
		}
		m.raw(`</div><p class="card-footer">Estatísticas de pico</p></section>`)

		m.raw(`<section class="card card-grey span-4"><h2 class="card-title">Capacidade</h2><div class="big-number">30%</div><p class="card-footer">Métricas de desempenho global</p></section>`)
		m.raw(`<section class="card card-mustard span-4"><h2 class="card-title">Transferência</h2><div class="big-number">12M</div><p class="mono upper bold small">Protocolo de saída ativo</p></section>`)
		m.raw(`</div>`)
	})
}

// RequestsView renders the paginated ledger and the request-creation modal.
func RequestsView(data DashboardData) templ.Component {
	page := data.Requests
	return component(func(m *markup) {
		m.raw(`<div class="stack-lg"><section class="card toolbar"><div><h2 class="title-md">Central de Requisições</h2>`)
		m.raw(`<p class="tiny mono upper faded">Emita novos tokens de acesso ou audite tráfego em tempo real.</p></div>`)
		m.raw(`<div class="toolbar-actions"><form method="post" action="/requests/page-size" class="page-size"><span class="tiny bold upper faded">Exibir</span><select name="size">`)
		for _, size := range data.PageSizes {
			m.raw(`<option value="`)
			m.number(size)
			m.raw(`"`)
			m.flag("selected", size == page.Size)
			m.raw(`>`)
			m.number(size)
			m.raw(`</option>`)
		}
		m.raw(`</select><button type="submit" class="btn btn-small">OK</button></form>`)
		m.raw(`<a href="/dashboard?create=1" class="btn btn-primary">⊕ Gerar Requisição</a></div></section>`)

		m.raw(`<section class="card flush"><table class="table mono"><thead><tr><th>ID_REQ</th><th>TIPO</th><th>MÉTODO</th><th class="text-center">STATUS</th><th>LATÊNCIA</th><th>HORÁRIO</th></tr></thead><tbody>`)
		if page.Empty() {
			m.raw(`<tr><td colspan="6" class="empty-row">`, emptyLedgerRow, `</td></tr>`)
		}
		for _, entry := range page.Items {
			m.raw(`<tr><td class="bold">`)
			m.text(entry.ID)
			m.raw(`</td><td><span class="tag tag-dark">`)
			m.text(entry.Type.Label())
			m.raw(`</span></td><td><span`)
			m.attr("class", "tag "+methodClass(entry.Method))
			m.raw(`>`)
			m.text(string(entry.Method))
			m.raw(`</span></td><td class="text-center"><span`)
			m.attr("class", "dot "+statusClass(entry.Status))
			m.raw(`></span><strong>`)
			m.number(entry.Status)
			m.raw(`</strong></td><td class="bold">`)
			m.text(entry.Latency)
			m.raw(`</td><td>`)
			m.text(entry.Timestamp)
			m.raw(`</td></tr>`)
		}
		m.raw(`</tbody></table>`)

		if page.TotalPages > 1 {
			m.raw(`<div class="pager"><div class="tiny bold upper faded">`)
			m.text(page.Caption())
			m.raw(` requisições</div><form method="post" action="/requests/page" class="pager-buttons">`)
			m.raw(`<button type="submit" name="page" value="prev" class="page-btn"`)
			m.flag("disabled", !page.HasPrev())
			m.raw(`>‹</button>`)
			for _, n := range page.Numbers() {
				m.raw(`<button type="submit" name="page" value="`)
				m.number(n)
				m.raw(`"`)
				m.attr("class", classes("page-btn", when(n == page.Index, "current")))
				m.raw(`>`)
				m.number(n)
				m.raw(`</button>`)
			}
			m.raw(`<button type="submit" name="page" value="next" class="page-btn"`)
			m.flag("disabled", !page.HasNext())
			m.raw(`>›</button></form></div>`)
		}
		m.raw(`</section>`)

		if data.CreateOpen {
			m.render(CreateRequestModal(data.RequestTypes))
		}
		m.raw(`</div>`)
	})
}

// CreateRequestModal offers one button per request category.
func CreateRequestModal(buttons []RequestTypeButton) templ.Component {
	return component(func(m *markup) {
		m.raw(`<div class="modal"><a href="/dashboard" class="modal-backdrop" aria-label="Fechar"></a><section class="card modal-box modal-heavy">`)
		m.raw(`<a href="/dashboard" class="modal-close" aria-label="Fechar">✕</a>`)
		m.raw(`<h2 class="title-lg ruled text-center">SELECIONE O NÚCLEO DE REQUISIÇÃO</h2><form method="post" action="/requests" class="stack">`)
		for _, b := range buttons {
			m.raw(`<button type="submit" name="type"`)
			m.attr("value", string(b.Type))
			m.attr("class", "btn btn-block "+b.Class)
			m.raw(`>`)
			m.text(b.Label)
			m.raw(`</button>`)
		}
		m.raw(`</form><p class="tiny mono upper faded text-center">AUTORIZAÇÃO DE SESSÃO EXIGIDA PARA PROCESSAMENTO EM LOTE</p></section></div>`)
	})
}

// ReportsView renders the deadline report over the whole ledger.
func ReportsView(data DashboardData) templ.Component {
	report := data.Report
	return component(func(m *markup) {
		m.raw(`<div class="stack-lg"><section class="card toolbar"><div><h2 class="title-md underline">Relatório de Atendimento</h2>`)
		m.raw(`<p class="tiny mono upper faded">Auditoria de prazos e cumprimento de requisições operacionais.</p></div>`)
		m.raw(`<div class="stat-row"><div class="stat"><span class="tiny bold upper faded">Taxa de Sucesso</span><span class="stat-value text-green">`)
		m.number(report.OnTimePercent)
		m.raw(`% NO PRAZO</span></div><div class="stat"><span class="tiny bold upper faded">Volume Total</span><span class="stat-value">`)
		m.number(report.Total)
		m.raw(` REQS</span></div></div></section>`)

		m.raw(`<section class="card flush"><table class="table mono"><thead><tr><th>ID_REQ</th><th>CATEGORIA</th><th>DATA ESPERADA</th><th class="text-center">DESEMPENHO</th><th class="text-center">ESTADO ATUAL</th></tr></thead><tbody>`)
		if len(data.Entries) == 0 {
			m.raw(`<tr><td colspan="5" class="empty-row">`, emptyLedgerRow, `</td></tr>`)
		}
		for _, entry := range data.Entries {
			m.raw(`<tr><td class="bold">`)
			m.text(entry.ID)
			m.raw(`</td><td class="bold small">`)
			m.text(entry.Type.Label())
			m.raw(`</td><td class="italic">`)
			m.text(entry.ExpectedDate)
			m.raw(`</td><td class="text-center">`)
			if entry.AttendedOnTime {
				m.raw(`<span class="tag tag-green">NO PRAZO</span>`)
			} else {
				m.raw(`<span class="tag tag-red">ATRASADA</span>`)
			}
			m.raw(`</td><td`)
			m.attr("class", "text-center bold small "+fulfillmentClass(entry.FulfillmentStatus))
			m.raw(`>`)
			m.text(string(entry.FulfillmentStatus))
			m.raw(`</td></tr>`)
		}
		m.raw(`</tbody></table></section>`)

		m.raw(`<div class="grid-2"><section class="card card-dark"><h2 class="card-title">Análise Mensal</h2>`)
		m.raw(`<div class="split small upper"><span>Eficiência Logística</span><strong>`)
		m.number(report.OnTimePercent)
		m.raw(`%</strong></div><div class="meter"><div style="width: `)
		m.number(report.OnTimePercent)
		m.raw(`%"></div></div><p class="tiny mono italic faded">Métrica calculada com base no tempo médio de resposta entre requisição e fechamento de ticket.</p></section>`)
		m.raw(`<section class="card card-orange"><h2 class="card-title">Alertas de Atraso</h2><h4 class="upper bold">⚠ `)
		m.number(report.Pending())
		m.raw(` Críticas pendentes</h4><p class="tiny mono">`)
		m.number(report.Late())
		m.raw(` requisições fora do prazo · `)
		m.number(report.Cancelled())
		m.raw(` canceladas · `)
		m.number(report.Done())
		m.raw(` concluídas.</p></section></div></div>`)
	})
}

// SettingsView renders the operational table cards.
func SettingsView(tables []TableCard) templ.Component {
	return component(func(m *markup) {
		m.raw(`<div class="stack-lg"><section class="card"><h2 class="title-md">Configurações de Tabelas</h2>`)
		m.raw(`<p class="small mono upper faded">Gerencie os registros principais do banco de dados operacional.</p></section><div class="grid-3">`)
		for _, table := range tables {
			m.raw(`<section`)
			m.attr("class", "card card-"+table.Variant)
			m.raw(`><h2 class="card-title">`)
			m.text(table.Name)
			m.raw(`</h2><div class="table-status"><span class="big-icon">`)
			m.text(table.Icon)
			m.raw(`</span><div><span class="tiny bold upper faded">Status da Tabela</span><br><strong class="upper">SINCRONIZADO</strong></div></div>`)
			m.raw(`<div class="grid-2 tight"><button type="button" class="btn btn-dark btn-small">Visualizar</button><button type="button" class="btn btn-small">Adicionar</button></div>`)
			m.raw(`<p class="card-footer">NÚCLEO_`)
			m.text(strings.ToUpper(table.ID))
			m.raw(`_DB</p></section>`)
		}
		m.raw(`<section class="card card-red text-center"><span class="big-icon pulse">⛁</span><h3 class="upper bold">Integridade do Banco</h3>`)
		m.raw(`<p class="tiny mono upper faded">Verificação de checksum automática ativa</p><div class="meter light"><div style="width: 94%"></div></div>`)
		m.raw(`<span class="tiny bold">ESTADO: 94% OTIMIZADO</span></section></div></div>`)
	})
}

// AdminView renders the profile card, activity logs and permissions.
func AdminView(data DashboardData) templ.Component {
	snapshot := data.Profile
	return component(func(m *markup) {
		m.raw(`<div class="stack-lg narrow"><section class="card profile">`)
		m.render(avatarForm(snapshot.Profile.AvatarURL))
		m.raw(`<div class="profile-body">`)
		if snapshot.Mode == profile.Editing {
			m.render(profileForm(snapshot, data.User))
		} else {
			m.render(profileCard(snapshot, data.User))
		}
		m.raw(`</div></section>`)

		m.raw(`<div class="grid-2"><section class="card card-grey"><h2 class="card-title">Logs de Acesso</h2><ul class="log-list mono tiny">`)
		for _, entry := range data.Logs {
			m.raw(`<li>[`)
			m.text(entry.Status)
			m.raw(`] `)
			m.text(entry.Description)
			m.raw(` (`)
			m.text(clock(entry.CreatedAt))
			m.raw(`)</li>`)
		}
		if len(data.Logs) == 0 {
			for _, line := range data.PlaceholderLogs {
				m.raw(`<li>`)
				m.text(line)
				m.raw(`</li>`)
			}
		}
		m.raw(`</ul><p class="card-footer">Histórico de sessões do usuário</p></section>`)

		m.raw(`<section class="card card-cyan"><h2 class="card-title">Permissões</h2><div class="tags">`)
		for _, permission := range data.Permissions {
			m.raw(`<span class="tag tag-dark">`)
			m.text(permission)
			m.raw(`</span>`)
		}
		m.raw(`</div><p class="card-footer">Lista de acessos concedidos</p></section></div></div>`)
	})
}

func avatarForm(url *string) templ.Component {
	return component(func(m *markup) {
		m.raw(`<form method="post" action="/profile/avatar" enctype="multipart/form-data" class="avatar-form"><label class="avatar">`)
		if url != nil {
			m.raw(`<img`)
			m.url("src", avatarURL(*url))
			m.raw(` alt="Avatar do usuário">`)
		} else {
			m.raw(`<span class="avatar-placeholder">☻</span>`)
		}
		m.raw(`<span class="avatar-overlay">Alterar Foto</span><input type="file" name="avatar" accept="image/*" class="hidden"></label>`)
		m.raw(`<button type="submit" class="btn btn-small">Enviar Foto</button><span class="badge">Admin_Nivel_7</span></form>`)
	})
}

func profileForm(snapshot profile.Snapshot, user string) templ.Component {
	return component(func(m *markup) {
		m.raw(`<form method="post" action="/profile/save" class="stack"><input class="name-input" name="full_name"`)
		m.attr("value", snapshot.Draft.FullName)
		m.raw(`><p class="mono upper bold ruled-left">Identidade Virtual Confirmada</p><div class="grid-2">`)
		m.raw(`<div class="info"><span class="tiny mono upper faded">E-mail de Acesso</span><p class="bold small">`)
		m.text(user)
		m.raw(`</p></div><div class="info"><span class="tiny mono upper faded">Cargo / Função</span><input name="role"`)
		m.attr("value", snapshot.Draft.Role)
		m.raw(`></div></div><div class="actions"><button type="submit" class="btn btn-green"`)
		m.flag("disabled", snapshot.Saving)
		m.raw(`>`)
		if snapshot.Saving {
			m.raw(`SALVANDO...`)
		} else {
			m.raw(`SALVAR ALTERAÇÕES`)
		}
		m.raw(`</button><button type="submit" formaction="/profile/cancel" class="btn btn-danger">CANCELAR</button></div></form>`)
	})
}

func profileCard(snapshot profile.Snapshot, user string) templ.Component {
	return component(func(m *markup) {
		m.raw(`<h2 class="title-xl">`)
		m.text(snapshot.Profile.FullName)
		m.raw(`</h2><p class="mono upper bold ruled-left">Identidade Virtual Confirmada</p><div class="grid-2">`)
		m.raw(`<div class="info"><span class="tiny mono upper faded">E-mail de Acesso</span><p class="bold small">`)
		m.text(user)
		m.raw(`</p></div><div class="info"><span class="tiny mono upper faded">Cargo / Função</span><p class="bold small">`)
		m.text(snapshot.Profile.Role)
		m.raw(`</p></div>`)
		m.raw(`<div class="info"><span class="tiny mono upper faded">Último Login</span><p class="bold small">Hoje</p></div>`)
		m.raw(`<div class="info"><span class="tiny mono upper faded">Status Global</span><p class="bold small text-green">● OPERACIONAL</p></div></div>`)
		m.raw(`<div class="actions"><form method="post" action="/profile/edit"><button type="submit" class="btn btn-primary">Editar Perfil</button></form>`)
		m.raw(`<form method="post" action="/profile/password" class="inline-form"><input type="password" name="password" placeholder="Nova senha" minlength="1">`)
		m.raw(`<button type="submit" class="btn">Trocar Senha</button></form></div>`)
	})
}

func clock(t time.Time) string {
	return t.Local().Format("15:04:05")
}

func methodClass(m types.RequestMethod) string {
	switch m {
	case types.MethodGet:
		return "tag-cyan"
	case types.MethodPost:
		return "tag-primary"
	case types.MethodDelete:
		return "tag-red"
	default:
		return "tag-orange"
	}
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "dot-green"
	case code < 500:
		return "dot-yellow"
	default:
		return "dot-red"
	}
}

func fulfillmentClass(s types.FulfillmentStatus) string {
	switch s {
	case types.FulfillmentDone:
		return "text-blue"
	case types.FulfillmentCancelled:
		return "text-grey"
	default:
		return "text-orange"
	}
}
