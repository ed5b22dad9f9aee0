package domain

import (
	"math"
	"sort"
	"strconv"
)

// changePrecision son los decimales del porcentaje formateado que consume la UI.
const changePrecision = 5

// TrackedItem es un MarketItem enriquecido con el estado de tracking de la
// ronda: último precio, baseline y cambio porcentual desde el baseline.
// ChangeValue es el valor numérico; ChangePercent es su representación
// formateada para la UI. Se mantienen juntos para no re-parsear en cada sort.
type TrackedItem struct {
	MarketItem
	Price         float64
	InitialPrice  float64
	ChangeValue   float64
	ChangePercent string
	Rank          int
}

// NewTrackedItems inicializa el estado de tracking de una ronda a partir de
// su lista de mercado: precio cero, cambio "0" y rank por orden de entrada.
func NewTrackedItems(market []MarketItem) []*TrackedItem {
	items := make([]*TrackedItem, len(market))
	for i, m := range market {
		items[i] = &TrackedItem{
			MarketItem:    m,
			ChangePercent: "0",
			Rank:          i + 1,
		}
	}
	return items
}

// FormatChange formatea un cambio porcentual con la precisión de display.
func FormatChange(v float64) string {
	return strconv.FormatFloat(v, 'f', changePrecision, 64)
}

// sortValue devuelve el valor de ordenación de un item. Un ChangePercent
// vacío o no parseable ordena al fondo con -Inf como centinela único.
func sortValue(it *TrackedItem) float64 {
	if it.ChangePercent == "" {
		return math.Inf(-1)
	}
	if _, err := strconv.ParseFloat(it.ChangePercent, 64); err != nil {
		return math.Inf(-1)
	}
	return it.ChangeValue
}

// RankByChange ordena los items descendente por cambio porcentual y asigna
// ranks densos 1-based. El sort es estable: los empates conservan el orden
// actual de la lista.
func RankByChange(items []*TrackedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return sortValue(items[i]) > sortValue(items[j])
	})
	for i, it := range items {
		it.Rank = i + 1
	}
}
