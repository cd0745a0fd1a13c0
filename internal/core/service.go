package core

import (
	"context"
	"log/slog"
	"time"
)

// Service loads and cleans the dataset behind the dashboard.
//
// Loading and cleaning are pure functions; Service adds memoization on top.
// The raw table is cached per data path and the clean table per raw digest,
// so repeated renders neither re-read the file nor re-run the cleaner. Both
// tables are immutable and safe to share between sessions.
type Service struct {
	path  string
	raw   *Memo[*Table]
	clean *Memo[*CleanResult]
}

// CleanResult pairs a clean table with the report of how it was produced.
type CleanResult struct {
	Table  *Table
	Report *CleanReport
}

// NewService creates a Service for the dataset at path.
func NewService(path string) *Service {
	if path == "" {
		path = DefaultDataPath
	}
	return &Service{
		path:  path,
		raw:   NewMemo[*Table](),
		clean: NewMemo[*CleanResult](),
	}
}

// Path returns the data file path.
func (s *Service) Path() string { return s.path }

// Raw returns the raw table, loading it on first use.
func (s *Service) Raw(ctx context.Context) (*Table, error) {
	return s.raw.Get(s.path, func() (*Table, error) {
		start := time.Now()
		t, err := Load(s.path)
		if err != nil {
			slog.ErrorContext(ctx, "dataset load failed", "path", s.path, "error", err)
			return nil, err
		}
		slog.InfoContext(ctx, "dataset loaded",
			"path", s.path,
			"rows", t.NumRows(),
			"columns", t.NumColumns(),
			"digest", shortDigest(t.Digest()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return t, nil
	})
}

// Cleaned returns the clean table and its report, deriving them from the
// raw table on first use.
func (s *Service) Cleaned(ctx context.Context) (*CleanResult, error) {
	raw, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}

	return s.clean.Get(raw.Digest(), func() (*CleanResult, error) {
		start := time.Now()
		t, report, err := CleanWithReport(raw)
		if err != nil {
			slog.ErrorContext(ctx, "dataset clean failed", "path", s.path, "error", err)
			return nil, err
		}
		slog.InfoContext(ctx, "dataset cleaned",
			"rows", t.NumRows(),
			"columns", t.NumColumns(),
			"dropped", report.Dropped,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return &CleanResult{Table: t, Report: report}, nil
	})
}

// Clean returns only the clean table.
func (s *Service) Clean(ctx context.Context) (*Table, error) {
	res, err := s.Cleaned(ctx)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// Tables returns the raw and clean tables together. A failure in either
// step is returned and no table is.
func (s *Service) Tables(ctx context.Context) (raw, clean *Table, err error) {
	raw, err = s.Raw(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Cleaned(ctx)
	if err != nil {
		return nil, nil, err
	}
	return raw, res.Table, nil
}

// Invalidate discards the cached tables so the next call reloads the file.
func (s *Service) Invalidate() {
	s.raw.Reset()
	s.clean.Reset()
}

// Loaded reports whether the raw table is currently cached.
func (s *Service) Loaded() bool {
	_, ok := s.raw.Peek(s.path)
	return ok
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
