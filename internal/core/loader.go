package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultDataPath is the well-known location of the source dataset.
const DefaultDataPath = "sucide_case.csv"

// DefaultMaxFileSize bounds how much of the source file is read (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// utf8BOM is the byte order mark some spreadsheet exports prepend.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads the comma-delimited file at path into a raw table.
// Every column is KindText and every cell keeps its literal string; only
// header names are trimmed of surrounding whitespace.
// Any failure wraps ErrDataUnavailable; no partial table is returned.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDataUnavailable, path, err)
	}
	defer f.Close()

	return LoadReader(f, filepath.Base(path))
}

// LoadReader parses CSV text from r. name labels the table and errors.
func LoadReader(r io.Reader, name string) (*Table, error) {
	data, err := io.ReadAll(io.LimitReader(r, DefaultMaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrDataUnavailable, name, err)
	}
	if int64(len(data)) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%w: file too large: %s exceeds %d bytes", ErrDataUnavailable, name, DefaultMaxFileSize)
	}
	return parseTable(data, name)
}

// parseTable converts file bytes into a raw table. The digest is computed
// over the bytes as read, before BOM removal or UTF-8 repair.
func parseTable(data []byte, name string) (*Table, error) {
	sum := sha256.Sum256(data)

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("\uFFFD"))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file %s", ErrDataUnavailable, name)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = 0 // header width is enforced on every row

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv %s: header: %w", ErrDataUnavailable, name, err)
	}

	// Header names are trimmed: the published dataset pads " gdp_for_year ($) ".
	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column{Name: strings.TrimSpace(h), Kind: KindText}
	}

	var rows [][]Value
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv %s: %w", ErrDataUnavailable, name, err)
		}

		row := make([]Value, len(record))
		for i, cell := range record {
			row[i] = TextValue(cell)
		}
		rows = append(rows, row)
	}

	return &Table{
		name:    name,
		digest:  hex.EncodeToString(sum[:]),
		columns: columns,
		rows:    rows,
	}, nil
}
