package gate

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/vadiminshakov/folio/internal/domain"
)

var (
	buyStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	sellStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D94F4F", Dark: "#F57373"})
	noteStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}).Italic(true)
)

// TUIConfirmer renders the trade list in the terminal and asks for an
// explicit yes/no.
type TUIConfirmer struct{}

// Confirm blocks until the user accepts or cancels.
func (TUIConfirmer) Confirm(trades []domain.TradeInstruction) (bool, error) {
	var b strings.Builder
	b.WriteString("The following trades will be executed to rebalance your portfolio:\n\n")
	for i := range trades {
		t := &trades[i]
		line := fmt.Sprintf("  %s$%s  %s  (%s%% -> %d%%)\n",
			sign(t), t.AmountUSD.Abs().StringFixed(2), t.Symbol, t.CurrentPct.StringFixed(1), t.TargetPct)
		if t.IsSell() {
			b.WriteString(sellStyle.Render(line))
		} else {
			b.WriteString(buyStyle.Render(line))
		}
	}
	b.WriteString("\n")
	b.WriteString(noteStyle.Render("Actual amounts may vary slightly due to slippage, price movements, and gas fees."))

	var accepted bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Confirm rebalance").
				Description(b.String()).
				Affirmative("Rebalance").
				Negative("Cancel").
				Value(&accepted),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return accepted, nil
}

func sign(t *domain.TradeInstruction) string {
	if t.IsSell() {
		return "-"
	}
	return "+"
}

// AutoConfirmer accepts every trade list. The web dashboard uses it because
// the browser side already collected the user's confirmation.
type AutoConfirmer struct{}

// Confirm always accepts.
func (AutoConfirmer) Confirm([]domain.TradeInstruction) (bool, error) {
	return true, nil
}
