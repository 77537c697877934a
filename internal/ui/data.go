package ui

import (
	"github.com/retro-admin/dashboard/internal/ledger"
	"github.com/retro-admin/dashboard/internal/pagination"
	"github.com/retro-admin/dashboard/internal/profile"
	"github.com/retro-admin/dashboard/types"
)

// LoginData feeds the login/sign-up page.
type LoginData struct {
	Dark   bool
	SignUp bool
	Email  string
	Error  string
	Info   string
}

// ConfigData feeds the configuration-instructions screen.
type ConfigData struct {
	Dark     bool
	Backend  string
	Missing  []string
	Settings []string
}

// NavItem is one entry of the sidebar.
type NavItem struct {
	View   types.View
	Label  string
	Icon   string
	Active bool
}

// DashboardData feeds every dashboard view.
type DashboardData struct {
	Dark       bool
	State      types.AppState
	Title      string
	Nav        []NavItem
	User       string
	Banner     string
	Notice     string
	Error      string
	CreateOpen bool

	Requests     pagination.Page[types.RequestEntry]
	PageSizes    []int
	RequestTypes []RequestTypeButton

	Entries []types.RequestEntry
	Report  ledger.Summary

	Profile         profile.Snapshot
	Logs            []types.ActivityLogEntry
	PlaceholderLogs []string
	Permissions     []string

	Weekly   []Bar
	Tasks    []Task
	Flow     []int
	Settings []TableCard
}

// RequestTypeButton is one category of the request-creation modal.
type RequestTypeButton struct {
	Type  types.RequestType
	Label string
	Class string
}

// Bar is one column of the weekly chart.
type Bar struct {
	Name   string
	Value  int
	Color  string
	Height int
}

// Task is a line of the recent tasks card.
type Task struct {
	Title string
	Time  string
	New   bool
}

// TableCard is one operational table of the settings view.
type TableCard struct {
	ID      string
	Name    string
	Icon    string
	Variant string
}

// Navigation lists the sidebar in display order, marking the current view.
func Navigation(current types.View) []NavItem {
	items := []NavItem{
		{View: types.ViewOverview, Label: "DASHBOARD", Icon: "▦"},
		{View: types.ViewRequests, Label: "REQUISIÇÕES", Icon: "⇄"},
		{View: types.ViewReports, Label: "RELATÓRIOS", Icon: "▤"},
		{View: types.ViewSettings, Label: "CONFIGURAÇÕES", Icon: "⚙"},
		{View: types.ViewAdmin, Label: "ADMIN", Icon: "⚒"},
	}
	for i := range items {
		items[i].Active = items[i].View == current
	}
	return items
}

// RequestTypeButtons lists the request-creation modal buttons.
func RequestTypeButtons() []RequestTypeButton {
	return []RequestTypeButton{
		{Type: types.RequestCompra, Label: "REQUISIÇÃO DE COMPRA", Class: "btn-primary"},
		{Type: types.RequestEquipamento, Label: "REQUISIÇÕES DE EQUIPAMENTO", Class: "btn-secondary"},
		{Type: types.RequestInertes, Label: "REQUISIÇÕES DE INERTES", Class: "btn-stone"},
		{Type: types.RequestContentores, Label: "REQUISIÇÕES DE CONTENTORES", Class: "btn-secondary btn-outline-orange"},
		{Type: types.RequestUnidadeDeVida, Label: "REQUISIÇÕES DE UNIDADE DE VIDA", Class: "btn-danger"},
	}
}

// Permissions shown on the admin view.
var Permissions = []string{"VER_ESTATS", "EXEC_REQ", "GESTAO_USER", "AUDIT_IA", "ACESSO_VPN"}

// PlaceholderLogs are shown when the user has no recorded activity yet.
var PlaceholderLogs = []string{
	"[OK] LOGIN REALIZADO VIA TERMINAL_01 (192.168.1.1)",
	"[OK] ACESSO À CENTRAL DE REQUISIÇÕES",
	"[AVISO] TENTATIVA DE ACESSO NEGADA EM NÚCLEO_ADMIN",
	"[OK] LOGOFF REALIZADO (SESSÃO 9920)",
}

// WeeklyBars is the static overview chart.
func WeeklyBars() []Bar {
	bars := []Bar{
		{Name: "SEG", Value: 240, Color: "#CA8A04"},
		{Name: "TER", Value: 410, Color: "#D1D5DB"},
		{Name: "QUA", Value: 320, Color: "#D35436"},
		{Name: "QUI", Value: 355, Color: "#22D3EE"},
		{Name: "SEX", Value: 890, Color: "#FFD700"},
		{Name: "SÁB", Value: 670, Color: "#D35436"},
		{Name: "DOM", Value: 500, Color: "#D1D5DB"},
	}
	peak := 0
	for _, b := range bars {
		peak = max(peak, b.Value)
	}
	for i := range bars {
		bars[i].Height = bars[i].Value * 100 / peak
	}
	return bars
}

// RecentTasks is the static overview task list.
var RecentTasks = []Task{
	{Title: "Revisar PR de código #2021", Time: "AGORA", New: true},
	{Title: "Atualizar configs do servidor", Time: "2m"},
	{Title: "Sincronizar logs do banco", Time: "1h"},
	{Title: "Implantação em staging", Time: "4h"},
}

// DataFlow is the static data flow sparkline, in percent.
var DataFlow = []int{20, 40, 30, 60, 45, 80, 50, 70, 35, 55, 60, 25}

// SettingsTables are the operational tables of the settings view.
var SettingsTables = []TableCard{
	{ID: "equip", Name: "Equipamento", Icon: "⚒", Variant: "mustard"},
	{ID: "cont", Name: "Contentores", Icon: "▣", Variant: "orange"},
	{ID: "cost", Name: "Centro de Custo", Icon: "$", Variant: "cyan"},
	{ID: "sect", Name: "Setores", Icon: "▥", Variant: "grey"},
	{ID: "resp", Name: "Responsáveis", Icon: "☻", Variant: "dark"},
}
