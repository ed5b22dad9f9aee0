package domain

import "sort"

// Standing es la proyección agregada de un usuario en la ronda: total
// apostado, retorno proyectado con los precios actuales y su posición.
// Horse es el asiento denso asignado por orden de id entre los usuarios
// con apuestas; no tiene relación con MarketItem.Horse.
type Standing struct {
	UserID          int64
	Username        string
	BettedAmount    float64
	PotentialReturn float64
	Horse           int
	CurrentRank     int
	ChangePercent   float64
}

// AggregateStandings proyecta (apuestas, snapshot rankeado) a standings por
// usuario. Es una función pura sin estado: se recalcula entera cada vez que
// cambia cualquiera de las dos entradas.
//
// Apuestas con User o MarketItem nil, o cuyo símbolo no está en el snapshot,
// se descartan en silencio: datos parciales del backend son un transitorio
// esperado, no un error.
func AggregateStandings(placements []Placement, snapshot []*TrackedItem) []Standing {
	if len(placements) == 0 {
		return []Standing{}
	}

	changeByItem := make(map[int64]float64, len(snapshot))
	for _, it := range snapshot {
		changeByItem[it.MarketItem.ID] = it.ChangeValue
	}

	// Asientos densos 1-based por orden ascendente de id de usuario.
	seen := make(map[int64]bool)
	var userIDs []int64
	for _, p := range placements {
		if p.User == nil || seen[p.User.ID] {
			continue
		}
		seen[p.User.ID] = true
		userIDs = append(userIDs, p.User.ID)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	seat := make(map[int64]int, len(userIDs))
	for i, id := range userIDs {
		seat[id] = i + 1
	}

	acc := make(map[int64]*Standing, len(userIDs))
	for _, p := range placements {
		if p.User == nil || p.MarketItem == nil {
			continue
		}
		change, ok := changeByItem[p.MarketItem.ID]
		if !ok {
			continue
		}

		st := acc[p.User.ID]
		if st == nil {
			st = &Standing{
				UserID:   p.User.ID,
				Username: p.User.Username,
				Horse:    seat[p.User.ID],
			}
			acc[p.User.ID] = st
		}
		st.BettedAmount += p.Amount
		st.PotentialReturn += p.Amount * (1 + change/100)
	}

	standings := make([]Standing, 0, len(acc))
	for _, id := range userIDs {
		st, ok := acc[id]
		if !ok {
			continue // todas sus apuestas fueron descartadas
		}
		if st.BettedAmount > 0 {
			st.ChangePercent = (st.PotentialReturn/st.BettedAmount - 1) * 100
		}
		standings = append(standings, *st)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].PotentialReturn > standings[j].PotentialReturn
	})
	for i := range standings {
		standings[i].CurrentRank = i + 1
	}
	return standings
}
