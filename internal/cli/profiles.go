package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aristath/goalsip/internal/config"
	"github.com/aristath/goalsip/internal/modules/allocation"
	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"
)

type profilesCmd struct {
	asYAML bool
	plain  bool
}

func (*profilesCmd) Name() string     { return "profiles" }
func (*profilesCmd) Synopsis() string { return "list risk profiles and their allocations" }
func (*profilesCmd) Usage() string {
	return `goalctl profiles [-yaml]

  Prints the risk-profile table in use. -yaml prints it in the PROFILES_FILE format.
`
}

func (c *profilesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asYAML, "yaml", false, "Print the table as YAML")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

func (c *profilesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	table, err := loadTable()
	if err != nil {
		return fail(err)
	}

	if c.asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(table); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	md := ProfilesMarkdown(table)
	if c.plain {
		fmt.Print(md)
	} else {
		printMarkdown(os.Stdout, md)
	}
	return subcommands.ExitSuccess
}

// loadTable reads the configured profile table without opening the history store
func loadTable() (*allocation.Table, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return allocation.LoadTable(cfg.ProfilesFile)
}
