package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/goalsip/internal/modules/history"
	"github.com/google/subcommands"
)

type importCmd struct {
	asset    string
	currency string
	fx       string
	dir      bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import NAV or exchange-rate history from CSV" }
func (*importCmd) Usage() string {
	return `goalctl import -asset <name> [-currency <CUR>] <file.csv>
goalctl import -fx <CUR> <file.csv>
goalctl import -dir [<directory>]

  NAV files have a date,price header, rate files a date,rate header. Dates are YYYY-MM-DD.
  -dir imports nav_<asset>_<CUR>.csv and fx_<CUR>.csv files from the import directory.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "asset", "", "Asset to import NAV prices for")
	f.StringVar(&c.currency, "currency", "", "Currency of the NAV prices (defaults to the base currency)")
	f.StringVar(&c.fx, "fx", "", "Currency to import base-currency exchange rates for")
	f.BoolVar(&c.dir, "dir", false, "Import every recognized file in a directory")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	modes := 0
	for _, set := range []bool{c.asset != "", c.fx != "", c.dir} {
		if set {
			modes++
		}
	}
	if modes != 1 || (!c.dir && f.NArg() != 1) || f.NArg() > 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()
	importer := a.container.Importer

	if c.dir {
		dir := a.cfg.ImportDir
		if f.NArg() == 1 {
			dir = f.Arg(0)
		}
		result, err := importer.ImportDirectory(ctx, dir)
		if err != nil {
			return fail(err)
		}
		for _, imported := range result.Imported {
			printImport(imported)
		}
		for _, name := range result.Failed {
			fmt.Fprintf(os.Stderr, "failed: %s\n", name)
		}
		if len(result.Failed) > 0 {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		return fail(err)
	}
	defer file.Close()

	var result history.ImportResult
	if c.fx != "" {
		result, err = importer.ImportRatesCSV(ctx, c.fx, "cli", file)
	} else {
		currency := c.currency
		if currency == "" {
			currency = a.cfg.BaseCurrency
		}
		result, err = importer.ImportPricesCSV(ctx, c.asset, currency, "cli", file)
	}
	if err != nil {
		return fail(err)
	}

	printImport(result)
	return subcommands.ExitSuccess
}

func printImport(r history.ImportResult) {
	fmt.Printf("%s %s: %d rows (%s to %s)\n", r.Kind, r.Target, r.Rows, r.FirstDate, r.LastDate)
}
