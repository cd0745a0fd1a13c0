package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/logging"
)

// Batch describes one published copy of the clean table.
type Batch struct {
	ID          uuid.UUID `json:"id"`
	SourceName  string    `json:"sourceName"`
	Digest      string    `json:"digest"`
	Rows        int       `json:"rows"`
	Origin      string    `json:"origin,omitempty"` // client IP or "cli"
	PublishedAt time.Time `json:"publishedAt"`
	Existing    bool      `json:"existing"` // the digest was already published
}

// converter turns a clean cell into a value pgx can encode.
type converter func(v core.Value, kind core.ColumnKind) any

// target maps a clean column onto a cleaned_suicide_stats column.
type target struct {
	source  string
	column  string
	convert converter
}

var statsTable = pgx.Identifier{"cleaned_suicide_stats"}

var targets = []target{
	{"country", "country", toText},
	{"year", "year", toInt4},
	{"sex", "sex", toText},
	{"age", "age", toText},
	{core.ColSuicidesNo, "suicides_no", toFloat8},
	{"population", "population", toInt8},
	{"suicides/100k_pop", "suicides_100k_pop", toFloat8},
	{"country-year", "country_year", toText},
	{core.ColGDPForYear, "gdp_for_year", toFloat8},
	{core.ColGDPPerCapita, "gdp_per_capita", toFloat8},
	{"generation", "generation", toText},
}

// copyColumns lists the COPY target columns in row order.
func copyColumns() []string {
	cols := []string{"batch_id", "row_num"}
	for _, t := range targets {
		cols = append(cols, t.column)
	}
	return cols
}

// Publish writes t as a new batch in a single transaction. Publishing the
// same content twice returns the earlier batch with Existing set.
func (s *Store) Publish(ctx context.Context, t *core.Table) (*Batch, error) {
	log := logging.WithFields(ctx, "digest", t.Digest(), "rows", t.NumRows(), "origin", core.OriginFromContext(ctx))

	if existing, err := s.batchByDigest(ctx, t.Digest()); err == nil {
		log.Info("publish skipped, digest already published", "batch_id", existing.ID)
		existing.Existing = true
		return existing, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup batch: %w", err)
	}

	batch := &Batch{
		ID:          uuid.New(),
		SourceName:  t.Name(),
		Digest:      t.Digest(),
		Rows:        t.NumRows(),
		Origin:      core.OriginFromContext(ctx),
		PublishedAt: time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO publish_batches (id, source_name, digest, row_count, origin, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		batch.ID, batch.SourceName, batch.Digest, batch.Rows, batch.Origin, batch.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	n, err := tx.CopyFrom(ctx, statsTable, copyColumns(), pgx.CopyFromRows(buildRows(batch.ID, t)))
	if err != nil {
		return nil, fmt.Errorf("copy rows: %w", err)
	}
	if int(n) != batch.Rows {
		return nil, fmt.Errorf("copy rows: wrote %d of %d", n, batch.Rows)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	log.Info("publish completed", "batch_id", batch.ID)
	return batch, nil
}

// Batches returns the most recent publish batches, newest first.
func (s *Store) Batches(ctx context.Context, limit int) ([]Batch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_name, digest, row_count, origin, published_at
		 FROM publish_batches ORDER BY published_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	batches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Batch, error) {
		var b Batch
		err := row.Scan(&b.ID, &b.SourceName, &b.Digest, &b.Rows, &b.Origin, &b.PublishedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

func (s *Store) batchByDigest(ctx context.Context, digest string) (*Batch, error) {
	var b Batch
	err := s.pool.QueryRow(ctx,
		`SELECT id, source_name, digest, row_count, origin, published_at
		 FROM publish_batches WHERE digest = $1`, digest).
		Scan(&b.ID, &b.SourceName, &b.Digest, &b.Rows, &b.Origin, &b.PublishedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// buildRows converts t into COPY rows. Columns absent from t are NULL.
func buildRows(batchID uuid.UUID, t *core.Table) [][]any {
	columns := t.Columns()
	index := make([]int, len(targets))
	for i, tg := range targets {
		idx, ok := t.ColumnIndex(tg.source)
		if !ok {
			idx = -1
		}
		index[i] = idx
	}

	rows := make([][]any, t.NumRows())
	for r := range rows {
		cells := t.Row(r)
		row := make([]any, 0, len(targets)+2)
		row = append(row, batchID, int32(r+1))
		for i, tg := range targets {
			idx := index[i]
			if idx < 0 {
				row = append(row, nil)
				continue
			}
			row = append(row, tg.convert(cells[idx], columns[idx].Kind))
		}
		rows[r] = row
	}
	return rows
}

func toText(v core.Value, kind core.ColumnKind) any {
	s := v.Format(kind)
	return pgtype.Text{String: s, Valid: s != ""}
}

func toFloat8(v core.Value, kind core.ColumnKind) any {
	if kind == core.KindNumeric {
		return v.Number
	}
	return core.ToFloat8(v.Text)
}

func toInt8(v core.Value, kind core.ColumnKind) any {
	n, err := strconv.ParseInt(strings.TrimSpace(v.Format(kind)), 10, 64)
	if err != nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: n, Valid: true}
}

func toInt4(v core.Value, kind core.ColumnKind) any {
	n, err := strconv.ParseInt(strings.TrimSpace(v.Format(kind)), 10, 32)
	if err != nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}
}
