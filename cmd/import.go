package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/KotFed0t/neobroker_portfolio_importer/config"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/broker"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/broker/scalablecapital"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/broker/traderepublic"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/export"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
	"github.com/KotFed0t/neobroker_portfolio_importer/internal/service/importService"
)

type institution string

const (
	instScalable      institution = "scalable"
	instTradeRepublic institution = "traderepublic"
)

// importCmd imports the current portfolio from one or more institutions.
// With credentials configured the login is fully automatic; without them the
// command opens the login page and waits for the user to authenticate.
type importCmd struct {
	cfg          *config.Config
	svc          *importService.ImportService
	name         string
	institutions []institution

	output string
	format string
	upload bool
	print  bool
}

func newImportCmd(cfg *config.Config, svc *importService.ImportService, name string, institutions ...institution) *importCmd {
	return &importCmd{cfg: cfg, svc: svc, name: name, institutions: institutions}
}

func (c *importCmd) Name() string { return c.name }

func (c *importCmd) Synopsis() string {
	return fmt.Sprintf("import current portfolio holdings (%s)", c.name)
}

func (c *importCmd) Usage() string {
	return fmt.Sprintf(`%s [-o path] [-f xlsx|csv|clipboard] [-upload] [-print]

Scrapes the current portfolio from the broker web app and writes one row per
holding. Without -o the records go to the clipboard. With credentials in the
environment the login is automatic; otherwise complete it in the opened
browser window.

`, c.name)
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file path (empty: clipboard)")
	f.StringVar(&c.format, "f", "", "output format: xlsx, csv or clipboard (default: by -o extension)")
	f.BoolVar(&c.upload, "upload", false, "upload the exported file to google drive")
	f.BoolVar(&c.print, "print", false, "also print records to stdout")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	format := c.resolveFormat()

	for _, inst := range c.institutions {
		strategy, creds := c.broker(inst)

		path := c.outputFor(strategy.Institution())

		sink, err := export.New(format, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}

		uploadPath := ""
		if c.upload && path != "" {
			uploadPath = path
		}

		positions, err := c.svc.ImportPortfolio(ctx, strategy, creds, sink, uploadPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: import from %s failed: %v\n", strategy.Institution(), err)
			return subcommands.ExitFailure
		}

		if c.print {
			printPositions(positions)
		}
	}

	return subcommands.ExitSuccess
}

func (c *importCmd) broker(inst institution) (broker.Strategy, model.Credentials) {
	switch inst {
	case instTradeRepublic:
		return traderepublic.New(c.cfg), model.Credentials{
			Login:  c.cfg.Brokers.TradeRepublicPhone,
			Secret: c.cfg.Brokers.TradeRepublicPin,
		}
	default:
		return scalablecapital.New(c.cfg), model.Credentials{
			Login:  c.cfg.Brokers.ScalableLogin,
			Secret: c.cfg.Brokers.ScalablePassword,
		}
	}
}

func (c *importCmd) resolveFormat() export.Format {
	if c.format != "" {
		return export.Format(c.format)
	}
	switch strings.ToLower(filepath.Ext(c.output)) {
	case ".xlsx":
		return export.FormatXLSX
	case ".csv":
		return export.FormatCSV
	default:
		return export.FormatClipboard
	}
}

// outputFor derives the per-institution file name when one command run
// covers several institutions, so the second import does not overwrite the
// first.
func (c *importCmd) outputFor(displayName string) string {
	if c.output == "" || len(c.institutions) == 1 {
		return c.output
	}
	ext := filepath.Ext(c.output)
	base := strings.TrimSuffix(c.output, ext)
	return fmt.Sprintf("%s %s%s", base, displayName, ext)
}

func printPositions(positions []model.PortfolioPosition) {
	fmt.Println(strings.Join(export.Header, "\t"))
	for _, p := range positions {
		fmt.Println(strings.Join(export.Row(p), "\t"))
	}
}
