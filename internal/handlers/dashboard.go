package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/pagination"
	"github.com/retro-admin/dashboard/internal/profile"
	"github.com/retro-admin/dashboard/internal/services"
	"github.com/retro-admin/dashboard/internal/storage"
	"github.com/retro-admin/dashboard/internal/ui"
	"github.com/retro-admin/dashboard/types"
)

const (
	formFieldEmail    = "email"
	formFieldPassword = "password"
	formFieldView     = "view"
	formFieldType     = "type"
	formFieldPage     = "page"
	formFieldSize     = "size"
	formFieldFullName = "full_name"
	formFieldRole     = "role"
	formFieldAvatar   = "avatar"

	maxMultipartMemory = profile.MaxAvatarBytes + 1<<20
)

// DashboardHandler serves the login page and every dashboard view.
type DashboardHandler struct {
	sessions *Sessions
	avatars  *profile.AvatarService
	logger   *zap.Logger
}

// NewDashboardHandler constructs a handler with the provided dependencies.
func NewDashboardHandler(sessions *Sessions, avatars *profile.AvatarService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		sessions: sessions,
		avatars:  avatars,
		logger:   logger,
	}
}

// DashboardRouter registers the page routes on r. Every route runs inside a workspace.
func DashboardRouter(r chi.Router, handler *DashboardHandler) {
	r.Get("/avatars/*", handler.Avatar)

	r.Group(func(r chi.Router) {
		r.Use(handler.sessions.Attach)

		r.Get("/", handler.Index)
		r.Get("/login", handler.LoginPage)
		r.Post("/login", handler.Login)
		r.Post("/signup", handler.SignUp)
		r.Post("/theme", handler.ToggleTheme)

		r.Get("/dashboard", handler.Dashboard)
		r.Post("/dashboard/navigate", handler.Navigate)
		r.Post("/logout", handler.RequestLogout)
		r.Post("/logout/cancel", handler.CancelLogout)
		r.Post("/logout/confirm", handler.ConfirmLogout)

		r.Post("/requests", handler.CreateRequest)
		r.Post("/requests/page", handler.ChangePage)
		r.Post("/requests/page-size", handler.ChangePageSize)

		r.Route("/profile", func(r chi.Router) {
			r.Post("/edit", handler.BeginEdit)
			r.Post("/cancel", handler.CancelEdit)
			r.Post("/save", handler.SaveProfile)
			r.Post("/avatar", handler.UploadAvatar)
			r.Post("/password", handler.ChangePassword)
		})

		r.Post("/insight", handler.RefreshInsight)

		r.Route("/api", func(r chi.Router) {
			r.Get("/state", handler.State)
			r.Get("/requests", handler.Requests)
		})
	})
}

// Index sends the visitor to the page matching the workspace state.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if onDashboard(ws) {
		redirect(w, r, "/dashboard")
		return
	}
	redirect(w, r, "/login")
}

// LoginPage renders the sign-in or sign-up form.
func (h *DashboardHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if onDashboard(ws) {
		redirect(w, r, "/dashboard")
		return
	}
	flash := ws.TakeFlash()
	h.render(w, r, http.StatusOK, ui.LoginPage(ui.LoginData{
		Dark:   ws.State().IsDarkMode,
		SignUp: r.URL.Query().Get("mode") == "signup",
		Error:  flash.Error,
		Info:   flash.Notice,
	}))
}

// Login authenticates the visitor. Failures re-render the form with the mapped message.
func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	email, password, ok := h.credentials(w, r)
	if !ok {
		return
	}

	if err := ws.SignIn(r.Context(), email, password); err != nil {
		h.render(w, r, http.StatusUnauthorized, ui.LoginPage(ui.LoginData{
			Dark:  ws.State().IsDarkMode,
			Email: email,
			Error: userMessage(err),
		}))
		return
	}
	h.saveSession(w, ws)
	redirect(w, r, "/dashboard")
}

// SignUp registers a new account and returns to the sign-in form.
func (h *DashboardHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	email, password, ok := h.credentials(w, r)
	if !ok {
		return
	}

	message, err := ws.SignUp(r.Context(), email, password)
	if err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, ui.LoginPage(ui.LoginData{
			Dark:   ws.State().IsDarkMode,
			SignUp: true,
			Email:  email,
			Error:  userMessage(err),
		}))
		return
	}
	ws.SetFlash(services.Flash{Notice: message})
	redirect(w, r, "/login")
}

// ToggleTheme flips dark mode and returns to the current page.
func (h *DashboardHandler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.ToggleTheme()
	h.back(w, r, ws)
}

// Dashboard renders the current view.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if !onDashboard(ws) {
		redirect(w, r, "/login")
		return
	}

	state := ws.State()
	flash := ws.TakeFlash()
	data := ui.DashboardData{
		Dark:            state.IsDarkMode,
		State:           state,
		Title:           state.CurrentView.Title(),
		Nav:             ui.Navigation(state.CurrentView),
		User:            displayUser(state),
		Banner:          ws.Banner(),
		Notice:          flash.Notice,
		Error:           flash.Error,
		Requests:        ws.RequestsPage(),
		PageSizes:       pagination.PageSizes,
		RequestTypes:    ui.RequestTypeButtons(),
		PlaceholderLogs: ui.PlaceholderLogs,
		Permissions:     ui.Permissions,
	}

	switch state.CurrentView {
	case types.ViewOverview:
		data.Weekly = ui.WeeklyBars()
		data.Tasks = ui.RecentTasks
		data.Flow = ui.DataFlow
	case types.ViewRequests:
		data.CreateOpen = r.URL.Query().Get("create") == "1"
	case types.ViewReports:
		data.Entries = ws.Entries()
		data.Report = ws.Report()
	case types.ViewSettings:
		data.Settings = ui.SettingsTables
	case types.ViewAdmin:
		snapshot, err := ws.Profile(r.Context())
		if err != nil {
			h.fail(w, r, ws, err)
			return
		}
		data.Profile = snapshot
		data.Logs = ws.ActivityLogs(r.Context())
	}

	h.render(w, r, http.StatusOK, ui.DashboardPage(data))
}

// Navigate switches the dashboard view.
func (h *DashboardHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		return ws.Navigate(types.View(strings.ToUpper(strings.TrimSpace(r.PostFormValue(formFieldView)))))
	})
}

// RequestLogout opens the confirmation modal.
func (h *DashboardHandler) RequestLogout(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		ws.RequestLogout()
		return nil
	})
}

// CancelLogout closes the confirmation modal.
func (h *DashboardHandler) CancelLogout(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		ws.CancelLogout()
		return nil
	})
}

// ConfirmLogout ends the session and returns to the login page.
func (h *DashboardHandler) ConfirmLogout(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.ConfirmLogout(r.Context())
	h.saveSession(w, ws)
	redirect(w, r, "/login")
}

// CreateRequest appends a ledger entry of the submitted category.
func (h *DashboardHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		var requestType types.RequestType
		if raw := strings.TrimSpace(r.PostFormValue(formFieldType)); raw != "" {
			parsed, ok := types.ParseRequestType(raw)
			if !ok {
				return services.ErrInvalidRequestType
			}
			requestType = parsed
		}
		_, err := ws.CreateRequest(r.Context(), requestType)
		return err
	})
}

// ChangePage accepts a page number, "prev" or "next". Out-of-range pages are ignored.
func (h *DashboardHandler) ChangePage(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		switch raw := strings.TrimSpace(r.PostFormValue(formFieldPage)); raw {
		case "prev":
			ws.PrevPage()
		case "next":
			ws.NextPage()
		default:
			if page, err := strconv.Atoi(raw); err == nil {
				ws.GoToPage(page)
			}
		}
		return nil
	})
}

// ChangePageSize sets the page size and returns to the first page.
func (h *DashboardHandler) ChangePageSize(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		size, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue(formFieldSize)))
		if err != nil {
			return pagination.ErrInvalidPageSize
		}
		return ws.SetPageSize(size)
	})
}

func (h *DashboardHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		if _, err := ws.Profile(r.Context()); err != nil {
			return err
		}
		return ws.BeginEdit()
	})
}

func (h *DashboardHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		return ws.CancelEdit(r.Context())
	})
}

// SaveProfile persists the submitted draft.
func (h *DashboardHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		if _, err := ws.Profile(r.Context()); err != nil {
			return err
		}
		err := ws.SaveProfile(r.Context(), profile.Draft{
			FullName: r.PostFormValue(formFieldFullName),
			Role:     r.PostFormValue(formFieldRole),
		})
		if err == nil {
			ws.SetFlash(services.Flash{Notice: "Perfil atualizado."})
		}
		return err
	})
}

// UploadAvatar stores the submitted image as the visitor's avatar.
func (h *DashboardHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartMemory)
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return profile.ErrImageTooLarge
			}
			return profile.ErrInvalidImage
		}
		file, _, err := r.FormFile(formFieldAvatar)
		if err != nil {
			ws.SetFlash(services.Flash{Error: msgMissingImage})
			return nil
		}
		defer file.Close()

		if _, err := ws.Profile(r.Context()); err != nil {
			return err
		}
		_, err = ws.UploadAvatar(r.Context(), file)
		return err
	})
}

// ChangePassword sets a new password for the signed in account.
func (h *DashboardHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		err := ws.ChangePassword(r.Context(), r.PostFormValue(formFieldPassword))
		if err == nil {
			ws.SetFlash(services.Flash{Notice: "Senha alterada com sucesso."})
		}
		return err
	})
}

// RefreshInsight asks for a new status banner.
func (h *DashboardHandler) RefreshInsight(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ws *services.Workspace) error {
		_, err := ws.RefreshInsight(r.Context())
		return err
	})
}

// Avatar serves a stored avatar image.
func (h *DashboardHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.avatars.Open(r.Context(), r.URL.Path)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			h.logger.Error("open avatar", zap.String("path", r.URL.Path), zap.Error(err))
		}
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("write avatar", zap.Error(err))
	}
}

// act runs fn against the visitor's workspace and returns to the dashboard.
// Errors are flashed as the mapped message; a visitor who is no longer signed
// in is sent to the login page.
func (h *DashboardHandler) act(w http.ResponseWriter, r *http.Request, fn func(*services.Workspace) error) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if !onDashboard(ws) {
		redirect(w, r, "/login")
		return
	}
	if err := fn(ws); err != nil {
		h.fail(w, r, ws, err)
		return
	}
	redirect(w, r, "/dashboard")
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, ws *services.Workspace, err error) {
	if !onDashboard(ws) {
		redirect(w, r, "/login")
		return
	}
	h.logger.Info("dashboard action failed", zap.String("path", r.URL.Path), zap.Error(err))
	ws.SetFlash(services.Flash{Error: userMessage(err)})
	redirect(w, r, "/dashboard")
}

func (h *DashboardHandler) back(w http.ResponseWriter, r *http.Request, ws *services.Workspace) {
	if onDashboard(ws) {
		redirect(w, r, "/dashboard")
		return
	}
	redirect(w, r, "/login")
}

func (h *DashboardHandler) credentials(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return "", "", false
	}
	return strings.TrimSpace(r.PostFormValue(formFieldEmail)), r.PostFormValue(formFieldPassword), true
}

func (h *DashboardHandler) workspace(w http.ResponseWriter, r *http.Request) (*services.Workspace, bool) {
	ws, err := workspaceFromContext(r.Context())
	if err != nil {
		h.logger.Error("resolve workspace", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return ws, true
}

// render buffers the page so a failed render never leaves a half-written response.
// saveSession refreshes the cookie's backend credential. A failure only costs
// the ability to resume after eviction.
func (h *DashboardHandler) saveSession(w http.ResponseWriter, ws *services.Workspace) {
	if err := h.sessions.Save(w, ws); err != nil {
		h.logger.Warn("refresh workspace cookie", zap.String("workspace_id", ws.ID()), zap.Error(err))
	}
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	var buf bytes.Buffer
	if err := page.Render(r.Context(), &buf); err != nil {
		h.logger.Error("render page", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func onDashboard(ws *services.Workspace) bool {
	return ws.State().CurrentPage == types.PageDashboard
}

func displayUser(state types.AppState) string {
	if state.User == nil {
		return types.FallbackUserLabel
	}
	return *state.User
}
