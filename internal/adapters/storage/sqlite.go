package storage

// sqlite.go: archivo histórico de rondas terminadas.
//
// Estrategia:
//   - `rounds`: una fila resumen por ronda finalizada (símbolos, usuarios,
//     ganador). Siempre 1 fila por finalización.
//   - `round_items`: ranking final de símbolos, una fila por símbolo.
//   - `round_standings`: standings finales de usuarios, una fila por usuario.
//   - Prune automático al arrancar: rondas con más de 30 días se borran con
//     sus filas hijas; el histórico es diagnóstico, no contabilidad.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
	"github.com/masterstrokeglobal/leadboard/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen por ronda finalizada
CREATE TABLE IF NOT EXISTS rounds (
    round_id     INTEGER PRIMARY KEY,
    finalized_at DATETIME NOT NULL,
    items        INTEGER  NOT NULL DEFAULT 0,
    users        INTEGER  NOT NULL DEFAULT 0,
    top_bitcode  TEXT     NOT NULL DEFAULT '',
    top_change   REAL     NOT NULL DEFAULT 0
);

-- Ranking final de símbolos
CREATE TABLE IF NOT EXISTS round_items (
    round_id       INTEGER NOT NULL,
    market_item_id INTEGER NOT NULL,
    bitcode        TEXT    NOT NULL,
    name           TEXT,
    initial_price  REAL    NOT NULL DEFAULT 0,
    final_price    REAL    NOT NULL DEFAULT 0,
    change_percent TEXT    NOT NULL DEFAULT '0',
    rank           INTEGER NOT NULL,
    PRIMARY KEY (round_id, market_item_id)
);

-- Standings finales de usuarios
CREATE TABLE IF NOT EXISTS round_standings (
    round_id         INTEGER NOT NULL,
    user_id          INTEGER NOT NULL,
    username         TEXT,
    betted_amount    REAL    NOT NULL DEFAULT 0,
    potential_return REAL    NOT NULL DEFAULT 0,
    horse            INTEGER NOT NULL DEFAULT 0,
    rank             INTEGER NOT NULL,
    PRIMARY KEY (round_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_rounds_at ON rounds(finalized_at DESC);
`

// retentionRounds: el histórico solo sirve para diagnóstico reciente.
const retentionRounds = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.ResultStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia rondas antiguas.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveResult persiste el resultado completo de una ronda finalizada en una
// transacción: resumen + ranking de símbolos + standings de usuarios.
func (s *SQLiteStorage) SaveResult(ctx context.Context, round domain.Round, items []*domain.TrackedItem, standings []domain.Standing) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveResult: begin tx: %w", err)
	}
	defer tx.Rollback()

	topBitcode := ""
	topChange := 0.0
	if len(items) > 0 {
		topBitcode = items[0].Bitcode
		topChange = items[0].ChangeValue
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO rounds (round_id, finalized_at, items, users, top_bitcode, top_change)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		round.ID, now, len(items), len(standings), topBitcode, topChange,
	); err != nil {
		return fmt.Errorf("storage.SaveResult: insert round: %w", err)
	}

	for _, it := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO round_items
				(round_id, market_item_id, bitcode, name, initial_price, final_price, change_percent, rank)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			round.ID, it.MarketItem.ID, it.Bitcode, it.Name, it.InitialPrice, it.Price, it.ChangePercent, it.Rank,
		); err != nil {
			return fmt.Errorf("storage.SaveResult: insert item %s: %w", it.Bitcode, err)
		}
	}

	for _, st := range standings {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO round_standings
				(round_id, user_id, username, betted_amount, potential_return, horse, rank)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			round.ID, st.UserID, st.Username, st.BettedAmount, st.PotentialReturn, st.Horse, st.CurrentRank,
		); err != nil {
			return fmt.Errorf("storage.SaveResult: insert standing user %d: %w", st.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveResult: commit: %w", err)
	}
	return nil
}

// GetHistory devuelve los resúmenes de rondas finalizadas en el rango dado,
// más recientes primero.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]ports.RoundSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT round_id, finalized_at, items, users, top_bitcode, top_change
		 FROM rounds
		 WHERE finalized_at BETWEEN ? AND ?
		 ORDER BY finalized_at DESC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var out []ports.RoundSummary
	for rows.Next() {
		var r ports.RoundSummary
		if err := rows.Scan(&r.RoundID, &r.FinalizedAt, &r.Items, &r.Users, &r.TopBitcode, &r.TopChange); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close cierra la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld borra rondas fuera de la retención con sus filas hijas.
// Best-effort: un fallo aquí no impide arrancar.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRounds)
	s.db.ExecContext(ctx, `DELETE FROM round_items WHERE round_id IN (SELECT round_id FROM rounds WHERE finalized_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM round_standings WHERE round_id IN (SELECT round_id FROM rounds WHERE finalized_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM rounds WHERE finalized_at < ?`, cutoff)
}
