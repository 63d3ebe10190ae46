package resolver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/biograph/trapi-engine/internal/biolink"
)

// SQLiteResolver looks curies up in a local, pre-populated equivalence
// table instead of calling a network service — useful for offline
// development and for tests that should not depend on a live resolver.
type SQLiteResolver struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteResolver opens (or creates) the SQLite database at path and
// ensures its lookup table exists.
func NewSQLiteResolver(ctx context.Context, path string) (*SQLiteResolver, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite resolver db %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite resolver db %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite resolver schema: %w", err)
	}
	return &SQLiteResolver{db: db, logger: slog.Default().With("component", "resolver")}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS curie_equivalence (
	curie             TEXT PRIMARY KEY,
	primary_curie     TEXT NOT NULL,
	label             TEXT,
	equivalent_curies TEXT NOT NULL DEFAULT '[]'
)`

// Close closes the underlying database handle.
func (r *SQLiteResolver) Close() error {
	return r.db.Close()
}

// Put upserts one curie's normalized info, for seeding the lookup table.
func (r *SQLiteResolver) Put(ctx context.Context, curie string, info biolink.EquivalentInfo) error {
	equivalents, err := json.Marshal(info.EquivalentCuries)
	if err != nil {
		return fmt.Errorf("marshal equivalent curies for %s: %w", curie, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO curie_equivalence (curie, primary_curie, label, equivalent_curies)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(curie) DO UPDATE SET primary_curie=excluded.primary_curie,
			label=excluded.label, equivalent_curies=excluded.equivalent_curies`,
		curie, info.PrimaryCurie, info.Label, string(equivalents))
	if err != nil {
		return fmt.Errorf("upsert curie equivalence for %s: %w", curie, err)
	}
	return nil
}

type equivalenceRow struct {
	Curie            string `db:"curie"`
	PrimaryCurie     string `db:"primary_curie"`
	Label            string `db:"label"`
	EquivalentCuries string `db:"equivalent_curies"`
}

// Resolve implements Resolver by looking curies up directly; curies absent
// from the table are simply omitted from the result.
func (r *SQLiteResolver) Resolve(ctx context.Context, curies []string) (map[string]biolink.EquivalentInfo, error) {
	if len(curies) == 0 {
		return map[string]biolink.EquivalentInfo{}, nil
	}

	placeholders := make([]string, len(curies))
	args := make([]interface{}, len(curies))
	for i, c := range curies {
		placeholders[i] = "?"
		args[i] = c
	}
	query := fmt.Sprintf(
		`SELECT curie, primary_curie, label, equivalent_curies FROM curie_equivalence WHERE curie IN (%s)`,
		strings.Join(placeholders, ","))

	var rows []equivalenceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return map[string]biolink.EquivalentInfo{}, nil
		}
		return nil, fmt.Errorf("query curie equivalence: %w", err)
	}

	out := make(map[string]biolink.EquivalentInfo, len(rows))
	for _, row := range rows {
		var equivalents []string
		if err := json.Unmarshal([]byte(row.EquivalentCuries), &equivalents); err != nil {
			r.logger.Warn("malformed equivalent_curies column, skipping", "curie", row.Curie, "error", err)
			continue
		}
		out[row.Curie] = biolink.EquivalentInfo{
			PrimaryCurie:     row.PrimaryCurie,
			Label:            row.Label,
			EquivalentCuries: equivalents,
		}
	}
	return out, nil
}
