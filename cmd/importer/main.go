// Command importer loads a JSON catalog of categories and games into the
// configured store, the same way POST /api/v1/admin/import does.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gamerank/backend/internal/bootstrap"
	"gamerank/backend/internal/config"
	"gamerank/backend/internal/importer"
)

type options struct {
	File      string
	ConfigDir string
	Timeout   time.Duration
}

func parseOptions(fs *flag.FlagSet, args []string) (options, error) {
	var opts options
	fs.StringVar(&opts.File, "file", "", "path to the catalog JSON document")
	fs.StringVar(&opts.ConfigDir, "config", ".", "directory holding the .env file")
	fs.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "abort the import after this long")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.File == "" {
		return options{}, errors.New("-file is required")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.LoadConfig(opts.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	doc, err := importer.Parse(f)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	s, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close(context.Background())

	report, runErr := importer.New(s).Run(ctx, doc)
	printReport(out, report)
	return runErr
}

func printReport(out io.Writer, report importer.Report) {
	fmt.Fprintf(out, "categories: %d created, %d updated\n", report.CategoriesCreated, report.CategoriesUpdated)
	fmt.Fprintf(out, "games:      %d created, %d updated\n", report.GamesCreated, report.GamesUpdated)
	for _, is := range report.Issues {
		fmt.Fprintf(out, "%-7s %s[%d] %s: %s\n", is.Severity, is.Collection, is.Index, is.ID, is.Message)
	}
	fmt.Fprintf(out, "skipped: %d\n", report.Skipped())
}

func main() {
	opts, err := parseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
