package engine

import (
	"fmt"

	"tradesim/types"
)

// PrintRunReport writes the formatted summary block to stdout.
func PrintRunReport(res *types.RunResult) {
	if res.Error != "" {
		fmt.Printf("===== Run %s failed: %s =====\n", res.ID, res.Error)
		return
	}

	fmt.Println("===== Simulation Report =====")
	fmt.Printf("Run ID:                %s\n", res.ID)
	fmt.Printf("Instrument:            %s\n", res.Settings.Instrument)
	fmt.Printf("Mode:                  %s\n", res.Settings.Mode)

	fmt.Println("\n-- Performance --")
	fmt.Printf("Initial Capital:       %s\n", res.Summary.InitialCapital)
	fmt.Printf("Final Capital:         %s\n", res.Summary.FinalCapital)
	fmt.Printf("Net Profit:            %s\n", res.Summary.NetProfit)
	fmt.Printf("Return:                %.2f%%\n", res.Summary.ReturnPct*100)

	fmt.Println("\n-- Trades --")
	fmt.Printf("Total Trades:          %d\n", res.Stats.TotalTrades)
	fmt.Printf("Win Rate:              %.2f%%\n", res.Stats.WinRate*100)
	fmt.Printf("Avg Win:               %s\n", res.Stats.AvgWin.Round(2))
	fmt.Printf("Avg Loss:              %s\n", res.Stats.AvgLoss.Round(2))
	fmt.Printf("Expectancy:            %.2f\n", res.Stats.Expectancy)
	fmt.Printf("Max Win Streak:        %d\n", res.Stats.MaxWinStreak)
	fmt.Printf("Max Loss Streak:       %d\n", res.Stats.MaxLossStreak)
	fmt.Printf("Total Commission:      %s\n", res.Stats.TotalCommission.Round(2))

	fmt.Println("\n-- Risk --")
	fmt.Printf("Sharpe Ratio:          %.3f\n", res.Metrics.Sharpe)
	fmt.Printf("Sortino Ratio:         %.3f\n", res.Metrics.Sortino)
	fmt.Printf("Calmar Ratio:          %.3f\n", res.Metrics.Calmar)
	fmt.Printf("Max Drawdown:          %.2f%%\n", res.Metrics.MaxDrawdown*100)
	fmt.Printf("Drawdown Duration:     %d steps\n", res.Metrics.DrawdownDuration)
	fmt.Printf("Recovery Factor:       %.3f\n", res.Metrics.RecoveryFactor)
	fmt.Printf("Risk of Ruin:          %.2f%%\n", res.Metrics.RiskOfRuin)
	fmt.Printf("Profit Factor:         %.3f\n", res.Metrics.ProfitFactor)

	fmt.Println("=============================")
}
