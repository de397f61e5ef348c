package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/goalsip/internal/domain"
	"github.com/aristath/goalsip/internal/modules/allocation"
	"github.com/aristath/goalsip/internal/modules/planning"
	"github.com/aristath/goalsip/internal/utils"
	"github.com/google/subcommands"
)

type analyzeCmd struct {
	goal    float64
	years   int
	lumpsum float64
	profile string
	alloc   string
	start   string
	asJSON  bool
	plain   bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "compute the monthly SIP and success probability for a goal" }
func (*analyzeCmd) Usage() string {
	return `goalctl analyze -goal <amount> -years <n> [-lumpsum <amount>] [-profile <name>] [-alloc a=w,b=w] [-json]

  Plans monthly contributions that reach the goal and estimates the probability of reaching it.
  -alloc implies the custom profile.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.goal, "goal", 0, "Goal amount in the base currency")
	f.IntVar(&c.years, "years", 0, "Time horizon in years")
	f.Float64Var(&c.lumpsum, "lumpsum", 0, "Amount invested up front")
	f.StringVar(&c.profile, "profile", "balanced", "Risk profile")
	f.StringVar(&c.alloc, "alloc", "", "Custom allocation, e.g. largecap=0.6,gold=0.4")
	f.StringVar(&c.start, "start", "", "Start date YYYY-MM-DD (defaults to today)")
	f.BoolVar(&c.asJSON, "json", false, "Print the summary as JSON")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

// request builds the planning request from the flags
func (c *analyzeCmd) request() (planning.Request, error) {
	req := planning.Request{
		GoalAmount:    c.goal,
		TimeHorizon:   c.years,
		LumpsumAmount: c.lumpsum,
		RiskProfile:   c.profile,
		StartDate:     c.start,
	}
	if c.alloc != "" {
		weights, err := utils.ParseWeights(c.alloc)
		if err != nil {
			return planning.Request{}, err
		}
		req.RiskProfile = allocation.Custom
		req.Allocation = allocation.Allocation(weights)
	}
	return req, nil
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	summary, err := a.container.PlanningService.Analyze(ctx, req)
	if err != nil {
		var short *domain.InsufficientHistoryError
		var missing *domain.DataUnavailableError
		if errors.As(err, &short) || errors.As(err, &missing) {
			fmt.Fprintln(os.Stderr, "Hint: import NAV history with 'goalctl import'.")
		}
		return fail(err)
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	md := SummaryMarkdown(summary, a.cfg.BaseCurrency)
	if c.plain {
		fmt.Print(md)
	} else {
		printMarkdown(os.Stdout, md)
	}
	return subcommands.ExitSuccess
}
