package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/logging"
	"github.com/JonMunkholm/suicide-explorer/internal/store"
	"github.com/JonMunkholm/suicide-explorer/internal/web/templates"
)

const (
	// healthPingTimeout bounds the database check of /healthz.
	healthPingTimeout = 2 * time.Second

	// maxPreviewRows caps the rows parameter of the preview endpoints.
	maxPreviewRows = 500

	// defaultBatchLimit is how many publish batches /api/batches lists.
	defaultBatchLimit = 20
)

// PreviewResponse is the JSON form of a table preview.
type PreviewResponse struct {
	Table     string        `json:"table"`
	Columns   []core.Column `json:"columns"`
	Rows      [][]*string   `json:"rows"` // null marks a missing number
	TotalRows int           `json:"totalRows"`
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// tableByName resolves "raw" or "clean" to the memoized table.
func (s *Server) tableByName(ctx context.Context, name string) (*core.Table, error) {
	switch name {
	case "raw":
		return s.service.Raw(ctx)
	case "clean", "":
		return s.service.Clean(ctx)
	default:
		return nil, errUnknownTable
	}
}

var errUnknownTable = errors.New("unknown table: want raw or clean")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	body := map[string]any{
		"dataLoaded":  s.service.Loaded(),
		"publishing":  s.publisher != nil,
		"publishGate": s.publishGate.Status(),
	}

	if s.publisher != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		body["database"] = "ok"
		if err := s.publisher.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("database ping failed", "error", err)
			body["database"] = "unreachable"
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	body["status"] = status
	writeJSON(w, code, body)
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Columns)
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Issues)
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Steps)
}

// handlePreview returns the first rows of the raw or clean table.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	t, err := s.tableByName(r.Context(), name)
	if errors.Is(err, errUnknownTable) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	n := min(parseIntParam(r, "rows", s.cfg.Data.PreviewRows), maxPreviewRows)
	writeJSON(w, http.StatusOK, previewOf(name, t, n))
}

func previewOf(name string, t *core.Table, n int) PreviewResponse {
	head := t.Head(n)
	cols := head.Columns()
	resp := PreviewResponse{
		Table:     name,
		Columns:   cols,
		Rows:      make([][]*string, head.NumRows()),
		TotalRows: t.NumRows(),
	}
	for i := range resp.Rows {
		row := head.Row(i)
		out := make([]*string, len(cols))
		for j, c := range cols {
			if c.Kind == core.KindNumeric && !row[j].Number.Valid {
				continue
			}
			s := row[j].Format(c.Kind)
			out[j] = &s
		}
		resp.Rows[i] = out
	}
	return resp
}

// handleProfile returns the basic info of the raw or clean table.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	t, err := s.tableByName(r.Context(), r.URL.Query().Get("table"))
	if errors.Is(err, errUnknownTable) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.Describe(t))
}

// handleReport returns what the cleaner changed.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Cleaned(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Report)
}

// handleReload discards the memoized tables and reloads them.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.service.Invalidate()

	raw, clean, err := s.service.Tables(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("dataset reloaded", "rows", raw.NumRows())

	writeJSON(w, http.StatusOK, map[string]any{
		"rows":         raw.NumRows(),
		"rawColumns":   raw.NumColumns(),
		"cleanColumns": clean.NumColumns(),
		"digest":       raw.Digest(),
	})
}

// handleExport streams the clean table as cleaned_suicide_data.csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	clean, err := s.service.Clean(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", core.ExportMediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.ExportFileName))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if err := core.WriteCSV(w, clean); err != nil {
		// Headers are already sent; log only.
		logging.FromContext(r.Context()).Error("export failed", "error", err)
		return
	}

	logging.FromContext(r.Context()).Info("export completed", "rows", clean.NumRows())
}

// handlePublish copies the clean table into the publish database.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		s.respondError(w, r, store.ErrNotConfigured)
		return
	}

	clean, err := s.service.Clean(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.publishGate.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.publishGate.Release()

	ctx, cancel := context.WithTimeout(withOrigin(r.Context(), r), s.cfg.Database.PublishTimeout)
	defer cancel()

	batch, err := s.publisher.Publish(ctx, clean)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if batch.Existing {
		status = http.StatusOK
	}

	if wantsJSON(r) {
		writeJSON(w, status, batch)
		return
	}

	summary := templates.PublishSummary{
		BatchID:     batch.ID.String(),
		Rows:        batch.Rows,
		Existing:    batch.Existing,
		PublishedAt: batch.PublishedAt,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if isHTMX(r) {
		_ = templates.PublishResult(summary).Render(r.Context(), w)
		return
	}
	_ = templates.PublishPage(s.catalog.Title, summary).Render(r.Context(), w)
}

// handleBatches lists recent publish batches.
func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		s.respondError(w, r, store.ErrNotConfigured)
		return
	}

	batches, err := s.publisher.Batches(r.Context(), parseIntParam(r, "limit", defaultBatchLimit))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}
