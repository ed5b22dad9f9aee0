package domain

import (
	"strings"
	"time"
)

// Round representa una ronda del juego de predicción: una ventana de apuestas
// seguida de una ventana de tracking donde el movimiento de precios decide
// el resultado. El backend es el dueño de este objeto; el engine solo lo lee.
type Round struct {
	ID               int64
	Market           []MarketItem
	PlacementEndTime time.Time
	EndTime          time.Time

	// InitialValues son baselines precalculados por el backend, indexados por
	// bitcode en minúsculas. Si falta un símbolo, el engine captura su propio
	// baseline con el primer tick tras PlacementEndTime.
	InitialValues map[string]float64
}

// MarketItem es un símbolo inscrito en la ronda.
type MarketItem struct {
	ID       int64
	Bitcode  string // clave del símbolo en el feed (p.ej. BTCUSDT)
	Stream   string // canal de suscripción del feed (p.ej. btcusdt@trade)
	CodeName string
	Name     string
	Horse    int // ordinal estable de display para esta ronda, 0 si no asignado
}

// Streams devuelve los canales de suscripción de todos los símbolos,
// omitiendo los vacíos.
func (r Round) Streams() []string {
	streams := make([]string, 0, len(r.Market))
	for _, m := range r.Market {
		if m.Stream != "" {
			streams = append(streams, m.Stream)
		}
	}
	return streams
}

// InitialValue devuelve el baseline precalculado del backend para un bitcode,
// si existe. La clave se normaliza a minúsculas.
func (r Round) InitialValue(bitcode string) (float64, bool) {
	if r.InitialValues == nil {
		return 0, false
	}
	v, ok := r.InitialValues[strings.ToLower(bitcode)]
	return v, ok
}

// PlacementUser identifica al usuario de una apuesta.
type PlacementUser struct {
	ID       int64
	Username string
}

// PlacementTarget identifica el símbolo apostado.
type PlacementTarget struct {
	ID int64
}

// Placement es una apuesta de un usuario sobre un símbolo de la ronda.
// User o MarketItem pueden venir nil en datos parciales del backend;
// el agregador las descarta sin error.
type Placement struct {
	User       *PlacementUser
	MarketItem *PlacementTarget
	Amount     float64
}
