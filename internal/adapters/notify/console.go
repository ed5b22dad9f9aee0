package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/masterstrokeglobal/leadboard/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
// Con table=true imprime snapshots como tabla completa; si no, una línea.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifySnapshot imprime el ranking en vivo: compacto por defecto,
// tabla completa en modo table.
func (c *Console) NotifySnapshot(_ context.Context, roundID int64, items []*domain.TrackedItem) error {
	if len(items) == 0 {
		return nil
	}

	if c.table {
		fmt.Fprintf(c.out, "\n[%s] round %d | live ranking\n", time.Now().Format("15:04:05"), roundID)
		c.printItems(items)
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] round %d", time.Now().Format("15:04:05"), roundID)
	shown := 0
	for _, it := range items {
		if shown >= 4 {
			break
		}
		fmt.Fprintf(&sb, " | #%d %s %s%%", it.Rank, it.Bitcode, it.ChangePercent)
		shown++
	}
	fmt.Fprintln(c.out, sb.String())
	return nil
}

// NotifyFinal imprime el ranking final de símbolos y los standings de usuarios.
func (c *Console) NotifyFinal(_ context.Context, round domain.Round, items []*domain.TrackedItem, standings []domain.Standing) error {
	fmt.Fprintf(c.out, "\n[%s] round %d finished | %d symbols, %d players\n",
		time.Now().Format("15:04:05"), round.ID, len(items), len(standings))

	c.printItems(items)

	if len(standings) == 0 {
		fmt.Fprintln(c.out, "  no placements in this round")
		return nil
	}
	c.printStandings(standings)
	return nil
}

// printItems imprime la tabla de símbolos con baseline, precio final y cambio.
func (c *Console) printItems(items []*domain.TrackedItem) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Name", "Baseline", "Price", "Change%")

	for _, it := range items {
		table.Append(
			fmt.Sprintf("%d", it.Rank),
			it.Bitcode,
			it.Name,
			fmt.Sprintf("%.4f", it.InitialPrice),
			fmt.Sprintf("%.4f", it.Price),
			it.ChangePercent,
		)
	}
	table.Render()
}

// printStandings imprime la tabla de usuarios ordenada por retorno proyectado.
func (c *Console) printStandings(standings []domain.Standing) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Seat", "User", "Betted", "Return", "Change%")

	for _, st := range standings {
		table.Append(
			fmt.Sprintf("%d", st.CurrentRank),
			fmt.Sprintf("%d", st.Horse),
			st.Username,
			fmt.Sprintf("%.2f", st.BettedAmount),
			fmt.Sprintf("%.2f", st.PotentialReturn),
			fmt.Sprintf("%.2f", st.ChangePercent),
		)
	}
	table.Render()
}
