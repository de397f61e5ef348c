package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/aristath/goalsip/internal/modules/allocation"
	"github.com/aristath/goalsip/internal/modules/planning"
	"github.com/shopspring/decimal"
)

// FormatMoney formats amount in the currency's display convention.
// Unknown codes fall back to "<amount> <code>".
func FormatMoney(amount float64, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func formatAmountOrNote(v planning.AmountOrNote, code string) string {
	if v.IsNote() {
		return v.Note
	}
	return FormatMoney(v.Amount, code)
}

// SummaryMarkdown renders an analysis as a markdown report
func SummaryMarkdown(s *planning.Summary, code string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Goal: %s in %d years\n\n", FormatMoney(s.GoalAmount, code), s.TimeHorizon)

	b.WriteString("| | |\n|---|---|\n")
	row := func(label, value string) {
		fmt.Fprintf(&b, "| %s | %s |\n", label, value)
	}
	row("Risk profile", s.RiskProfile)
	row("Lumpsum", FormatMoney(s.LumpsumAmount, code))
	row("Monthly SIP", formatAmountOrNote(s.TotalMonthlySIP, code))
	row("Expected return (rolling XIRR)", formatPercent(s.RollingXIRR))
	if s.ForecastReturn != nil {
		row("Forecast return", formatPercent(*s.ForecastReturn))
	}
	row("Portfolio growth", formatPercent(s.PortfolioGrowth))
	row("Chance of reaching the goal", formatPercent(s.GoalAchievementProbability))
	row("Suggested SIP", formatAmountOrNote(s.SuggestedSIP, code))

	b.WriteString("\n## Assets\n\n")
	b.WriteString("| Asset | Weight | Expected return | Monthly SIP | Forecast return |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, a := range s.AssetSummaries {
		forecast := "-"
		if a.ForecastReturn != nil {
			forecast = formatPercent(*a.ForecastReturn)
		}
		name := a.Name
		if a.FixedRate {
			name += " (fixed)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			name,
			formatPercent(a.Weight*100),
			formatPercent(a.ExpectedReturn),
			FormatMoney(a.SIPAmount, code),
			forecast,
		)
	}

	if s.RequestID != "" {
		fmt.Fprintf(&b, "\n_Request %s_\n", s.RequestID)
	}
	return b.String()
}

// ProfilesMarkdown renders the risk-profile table
func ProfilesMarkdown(t *allocation.Table) string {
	var b strings.Builder
	b.WriteString("# Risk profiles\n")

	for _, name := range t.Names() {
		if name == allocation.Custom {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n| Asset | Weight |\n|---|---:|\n", name)
		alloc := t.Profiles[name]
		for _, asset := range alloc.Assets() {
			label := asset
			if rate, ok := t.FixedRate(asset); ok {
				label = fmt.Sprintf("%s (fixed %.2f%%)", asset, rate)
			}
			fmt.Fprintf(&b, "| %s | %s |\n", label, formatPercent(alloc[asset]*100))
		}
	}

	fmt.Fprintf(&b, "\n## %s\n\nSupply weights with `-alloc asset=weight,...`; they must sum to 1.\n", allocation.Custom)

	if len(t.FixedRates) > 0 {
		assets := make([]string, 0, len(t.FixedRates))
		for asset := range t.FixedRates {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
		b.WriteString("\n## Fixed-rate assets\n\n")
		for _, asset := range assets {
			fmt.Fprintf(&b, "- %s: %s a year\n", asset, formatPercent(t.FixedRates[asset]))
		}
	}
	return b.String()
}
