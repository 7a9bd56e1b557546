package journal

import (
	"fmt"
	"strings"
)

// Report renders a session's Metrics as a plain-text summary, in the
// same box-drawing style the original backtest engine's reports use.
func Report(m Metrics) string {
	var sb strings.Builder

	sb.WriteString("═══════════════════════════════════════════════════════\n")
	sb.WriteString("                SESSION PERFORMANCE\n")
	sb.WriteString("═══════════════════════════════════════════════════════\n\n")

	sb.WriteString(fmt.Sprintf("Total Trades:      %d\n", m.TotalTrades))
	sb.WriteString(fmt.Sprintf("Winning Trades:    %d\n", m.WinningTrades))
	sb.WriteString(fmt.Sprintf("Losing Trades:     %d\n", m.LosingTrades))
	sb.WriteString(fmt.Sprintf("Win Rate:          %s%%\n", m.WinRate.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Total P&L:         %s\n", m.TotalPnL.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Profit Factor:     %s\n", m.ProfitFactor.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Max Drawdown:      %s (%s%%)\n", m.MaxDrawdown.StringFixed(2), m.MaxDrawdownPct.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Liquidations:      %d\n\n", m.LiquidationCount))

	sb.WriteString(fmt.Sprintf("Sharpe:            %.3f\n", m.Sharpe))
	sb.WriteString(fmt.Sprintf("Sortino:           %.3f\n", m.Sortino))
	sb.WriteString(fmt.Sprintf("Calmar:            %.3f\n", m.Calmar))
	sb.WriteString(fmt.Sprintf("Omega:             %.3f\n", m.Omega))

	sb.WriteString("═══════════════════════════════════════════════════════\n")
	return sb.String()
}
