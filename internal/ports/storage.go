package ports

import (
	"context"
	"time"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

// RoundSummary es el resumen archivado de una ronda terminada.
type RoundSummary struct {
	RoundID     int64
	FinalizedAt time.Time
	Items       int
	Users       int
	TopBitcode  string
	TopChange   float64
}

// ResultStorage archiva el resultado final de cada ronda.
type ResultStorage interface {
	// SaveResult persiste el ranking final de símbolos y los standings
	// de usuarios de una ronda terminada.
	SaveResult(ctx context.Context, round domain.Round, items []*domain.TrackedItem, standings []domain.Standing) error

	// GetHistory devuelve los resúmenes de rondas archivadas en el rango dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]RoundSummary, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
