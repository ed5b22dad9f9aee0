package domain

import "time"

// Phase es la fase de una ronda respecto a sus ventanas de tiempo.
type Phase string

const (
	// PhasePreTracking: aún se aceptan apuestas, los precios no cuentan.
	PhasePreTracking Phase = "pre-tracking"
	// PhaseTracking: ventana entre cierre de apuestas y fin de ronda.
	PhaseTracking Phase = "tracking"
	// PhaseCompleted: la ronda terminó, el ranking queda congelado.
	PhaseCompleted Phase = "completed"
)

// PhaseAt resuelve la fase de la ronda en el instante dado. Es una función
// pura: los tres intervalos particionan la línea de tiempo sin huecos ni
// solapes, así que siempre devuelve exactamente una fase.
func (r Round) PhaseAt(now time.Time) Phase {
	switch {
	case now.Before(r.PlacementEndTime):
		return PhasePreTracking
	case now.After(r.EndTime):
		return PhaseCompleted
	default:
		return PhaseTracking
	}
}
