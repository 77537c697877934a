package types

// Page is the top-level screen of the application.
type Page string

const (
	PageLogin     Page = "LOGIN"
	PageDashboard Page = "DASHBOARD"
)

// View is the dashboard sub-screen. It is only meaningful while on PageDashboard.
type View string

const (
	ViewOverview View = "OVERVIEW"
	ViewRequests View = "REQUESTS"
	ViewReports  View = "REPORTS"
	ViewAdmin    View = "ADMIN"
	ViewSettings View = "SETTINGS"
)

// Views lists the dashboard views in navigation order.
var Views = []View{ViewOverview, ViewRequests, ViewReports, ViewSettings, ViewAdmin}

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	for _, known := range Views {
		if v == known {
			return true
		}
	}
	return false
}

// Title returns the header title of the view.
func (v View) Title() string {
	switch v {
	case ViewOverview:
		return "Dashboard"
	case ViewRequests:
		return "Requisições"
	case ViewReports:
		return "Relatórios"
	case ViewAdmin:
		return "Administração"
	case ViewSettings:
		return "Configurações"
	default:
		return string(v)
	}
}

// AppState is the observable state of one visitor's session.
type AppState struct {
	IsDarkMode        bool    `json:"is_dark_mode"`
	CurrentPage       Page    `json:"current_page"`
	CurrentView       View    `json:"current_view"`
	User              *string `json:"user"`
	IsLogoutModalOpen bool    `json:"is_logout_modal_open"`
}

// InitialAppState returns the state every session starts from.
func InitialAppState() AppState {
	return AppState{
		CurrentPage: PageLogin,
		CurrentView: ViewOverview,
	}
}
