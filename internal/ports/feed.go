package ports

import (
	"context"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
)

// TickHandler recibe cada tick de precio aceptado del feed.
// Se invoca en orden de llegada por conexión.
type TickHandler func(symbol string, price float64)

// StateHandler observa las transiciones de estado de la conexión.
type StateHandler func(state domain.ConnState)

// PriceFeed mantiene una conexión viva al feed de precios para los canales
// de una ronda. La reconexión tras caídas es responsabilidad del feed;
// Stop la cancela definitivamente.
type PriceFeed interface {
	// Start abre la conexión y se suscribe. Con lista de canales vacía
	// no intenta conectar. No bloquea.
	Start(ctx context.Context) error

	// Stop cierra la conexión deliberadamente y cancela cualquier
	// reconexión pendiente. Idempotente.
	Stop()

	// State devuelve el estado actual de la conexión.
	State() domain.ConnState
}

// FeedFactory construye un feed para los canales de una ronda concreta.
// El engine crea un feed por ronda y lo destruye al cambiar de ronda.
type FeedFactory func(streams []string, onTick TickHandler, onState StateHandler) PriceFeed
