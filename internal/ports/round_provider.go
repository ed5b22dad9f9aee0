package ports

import (
	"context"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

// RoundProvider obtiene la ronda activa del backend de la plataforma.
type RoundProvider interface {
	// CurrentRound devuelve la ronda en curso para el tipo de juego dado.
	CurrentRound(ctx context.Context, gameType string) (domain.Round, error)
}
