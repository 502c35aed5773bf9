package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/facualex/portalinmobiliario-etl/config"
	"github.com/facualex/portalinmobiliario-etl/models"
)

// PostgresStore upserts extracted apartments keyed by listing URL and
// comuna, so a listing found under two comunas keeps one row per comuna.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.ensureSchema(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveResults upserts every listing with a URL in one transaction and
// returns how many rows were written.
func (s *PostgresStore) SaveResults(ctx context.Context, results []models.ComunaResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertSQL())
	if err != nil {
		return 0, fmt.Errorf("prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	total := 0
	for _, result := range results {
		for _, listing := range result.Listings {
			if listing.URL == "" {
				continue
			}
			if _, err = stmt.ExecContext(ctx, rowValues(listing)...); err != nil {
				return 0, fmt.Errorf("upsert listing %q: %w", listing.URL, err)
			}
			total++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return total, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL()); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// schemaSQL derives the apartments table from the record fields: text
// fields become TEXT columns and flags become BOOLEAN columns.
func schemaSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS apartments (\n")
	b.WriteString("\tid BIGSERIAL PRIMARY KEY,\n")
	b.WriteString("\turl TEXT NOT NULL,\n")
	for _, f := range models.Fields() {
		if f.IsFlag() {
			fmt.Fprintf(&b, "\t%s BOOLEAN NOT NULL DEFAULT FALSE,\n", f)
		} else {
			fmt.Fprintf(&b, "\t%s TEXT NOT NULL DEFAULT '',\n", f)
		}
	}
	b.WriteString("\tcreated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),\n")
	b.WriteString("\tupdated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),\n")
	b.WriteString("\tUNIQUE (url, comuna)\n")
	b.WriteString(");\n")
	b.WriteString("CREATE INDEX IF NOT EXISTS idx_apartments_comuna ON apartments(comuna);\n")
	return b.String()
}

func upsertSQL() string {
	fields := models.Fields()
	cols := make([]string, 0, len(fields)+1)
	args := make([]string, 0, len(fields)+1)
	sets := make([]string, 0, len(fields)+1)

	cols = append(cols, "url")
	args = append(args, "$1")
	for i, f := range fields {
		cols = append(cols, f.String())
		args = append(args, fmt.Sprintf("$%d", i+2))
		if f == models.FieldComuna {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", f, f))
	}
	sets = append(sets, "updated_at = NOW()")

	return fmt.Sprintf(
		"INSERT INTO apartments (%s)\nVALUES (%s)\nON CONFLICT (url, comuna) DO UPDATE\nSET %s",
		strings.Join(cols, ", "),
		strings.Join(args, ", "),
		strings.Join(sets, ",\n\t"),
	)
}

// rowValues lines up with the column order of upsertSQL.
func rowValues(l models.Listing) []any {
	fields := models.Fields()
	values := make([]any, 0, len(fields)+1)
	values = append(values, l.URL)
	for _, f := range fields {
		if f.IsFlag() {
			values = append(values, l.Apartment.Flag(f))
		} else {
			values = append(values, l.Apartment.Text(f))
		}
	}
	return values
}
