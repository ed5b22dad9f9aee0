package ports

import (
	"context"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

// PlacementProvider obtiene las apuestas de una ronda desde el backend.
type PlacementProvider interface {
	// RoundPlacements devuelve todas las apuestas registradas en la ronda.
	// Entradas parciales (sin usuario o sin símbolo) se devuelven tal cual;
	// es el agregador quien las descarta.
	RoundPlacements(ctx context.Context, roundID int64) ([]domain.Placement, error)
}
