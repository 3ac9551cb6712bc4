package handler

import (
	"log/slog"
	"net/http"

	"github.com/aivira/grantdna/internal/model"
)

type leadsData struct {
	Submissions []model.Submission
	User        *model.User
}

// handleAdminLeads lists all captured leads, newest first.
func (h *Handler) handleAdminLeads(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubmissions()
	if err != nil {
		slog.Error("failed to list submissions", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, r, http.StatusOK, "admin_leads", leadsData{
		Submissions: subs,
		User:        model.UserFromContext(r.Context()),
	})
}
