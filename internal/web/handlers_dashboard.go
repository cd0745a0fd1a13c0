package web

import (
	"net/http"

	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/web/templates"
)

// datasetPanelRows caps the rows rendered in the full dataset panel.
const datasetPanelRows = 1000

// handleDashboard renders the main dashboard page.
// Loading or cleaning failures abort the render with an error page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := s.viewState(r)

	raw, err := s.service.Raw(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	cleaned, err := s.service.Cleaned(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := templates.DashboardData{
		Catalog:        s.catalog,
		ShowDataset:    view.Has(ShowDataset),
		ShowColumns:    view.Has(ShowColumns),
		RawPreview:     raw.Head(s.cfg.Data.PreviewRows),
		CleanPreview:   cleaned.Table.Head(s.cfg.Data.PreviewRows),
		Report:         cleaned.Report,
		ExportName:     core.ExportFileName,
		PublishEnabled: s.publisher != nil && !s.cfg.Security.RequireAPIKey,
	}
	if data.ShowDataset {
		profile := core.Describe(raw)
		data.Profile = &profile
		data.Dataset = raw.Head(datasetPanelRows)
		data.DatasetRows = raw.NumRows()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(data).Render(ctx, w); err != nil {
		s.respondError(w, r, err)
	}
}

// handleShowDataset opens the dataset panel.
func (s *Server) handleShowDataset(w http.ResponseWriter, r *http.Request) {
	s.updateView(w, r, func(v ViewState) ViewState { return v.With(ShowDataset) })
}

// handleShowColumns opens the column description panel.
func (s *Server) handleShowColumns(w http.ResponseWriter, r *http.Request) {
	s.updateView(w, r, func(v ViewState) ViewState { return v.With(ShowColumns) })
}

// handleResetView closes both panels.
func (s *Server) handleResetView(w http.ResponseWriter, r *http.Request) {
	s.updateView(w, r, func(ViewState) ViewState { return 0 })
}

// updateView applies fn to the session's view state and redirects to the
// dashboard.
func (s *Server) updateView(w http.ResponseWriter, r *http.Request, fn func(ViewState) ViewState) {
	if err := s.saveViewState(w, r, fn(s.viewState(r))); err != nil {
		s.respondError(w, r, err)
		return
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
