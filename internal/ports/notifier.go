package ports

import (
	"context"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

// Notifier presenta el estado del leaderboard al usuario.
type Notifier interface {
	// NotifySnapshot muestra el ranking en vivo de un snapshot periódico.
	NotifySnapshot(ctx context.Context, roundID int64, items []*domain.TrackedItem) error

	// NotifyFinal muestra el ranking final y los standings al cerrar la ronda.
	// En la implementación de consola, imprime tablas formateadas.
	NotifyFinal(ctx context.Context, round domain.Round, items []*domain.TrackedItem, standings []domain.Standing) error
}
