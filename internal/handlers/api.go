package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/retro-admin/dashboard/internal/pagination"
	"github.com/retro-admin/dashboard/types"
)

// StateResponse mirrors the workspace for polling clients.
type StateResponse struct {
	State    types.AppState  `json:"state"`
	Identity *types.Identity `json:"identity"`
	Version  uint64          `json:"version"`
}

// RequestListResponse is the paginated ledger payload.
type RequestListResponse struct {
	Items      []types.RequestEntry `json:"items"`
	Page       int                  `json:"page"`
	Size       int                  `json:"size"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"total_pages"`
}

// State returns the visitor's AppState.
func (h *DashboardHandler) State(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		State:    ws.State(),
		Identity: ws.Identity(),
		Version:  ws.Version(),
	})
}

// Requests returns one page of the ledger. Without page/size query
// parameters the workspace's own pager position is used.
func (h *DashboardHandler) Requests(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if !onDashboard(ws) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page := ws.RequestsPage()
	query := r.URL.Query()
	if rawPage, rawSize := strings.TrimSpace(query.Get("page")), strings.TrimSpace(query.Get("size")); rawPage != "" || rawSize != "" {
		index, size := page.Index, page.Size
		var err error
		if rawPage != "" {
			if index, err = strconv.Atoi(rawPage); err != nil || index < 1 {
				writeError(w, http.StatusBadRequest, "invalid page")
				return
			}
		}
		if rawSize != "" {
			if size, err = strconv.Atoi(rawSize); err != nil || size < 1 {
				writeError(w, http.StatusBadRequest, "invalid size")
				return
			}
		}
		page = pagination.Paginate(ws.Entries(), size, index)
	}

	items := page.Items
	if items == nil {
		items = []types.RequestEntry{}
	}
	writeJSON(w, http.StatusOK, RequestListResponse{
		Items:      items,
		Page:       page.Index,
		Size:       page.Size,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}
