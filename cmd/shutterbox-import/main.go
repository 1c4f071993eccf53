// Package main provides a command-line tool that imports photos into a
// Shutterbox library without running the server.
//
// Usage:
//
//	shutterbox-import --library-path ~/Shutterbox photos/*.jpg
//	shutterbox-import --tag Holiday --book "Summer 2024" ~/Pictures/summer
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/pflag"

	"github.com/shutterboxapp/shutterbox/internal/config"
	"github.com/shutterboxapp/shutterbox/internal/di"
	"github.com/shutterboxapp/shutterbox/internal/di/providers"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/service"
)

type options struct {
	tags     []string
	book     string
	pageSize int
	dryRun   bool
}

func main() {
	flags := config.NewFlagSet("shutterbox-import")
	var opts options
	flags.StringSliceVar(&opts.tags, "tag", nil, "Tag every imported photo (repeatable)")
	flags.StringVar(&opts.book, "book", "", "Create a photo-book from the imported photos")
	flags.IntVar(&opts.pageSize, "page-size", -1, "Photos per photo-book page (default: PHOTOBOOK_PAGE_SIZE)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "List the files that would be imported")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: shutterbox-import [flags] <file|dir>...\n\n%s", flags.FlagUsages())
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}
	if opts.pageSize < 0 {
		opts.pageSize = cfg.Layout.PageSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, flags.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, args []string, out io.Writer) error {
	paths, err := collect(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no importable files found")
	}

	if opts.dryRun {
		for _, p := range paths {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	injector := di.NewContainer(cfg)
	defer func() { _ = injector.Shutdown() }()

	if err := di.BootstrapLibrary(injector); err != nil {
		return err
	}
	assets := do.MustInvoke[*service.AssetService](injector)

	sources := make([]ingest.Source, len(paths))
	for i, p := range paths {
		sources[i] = ingest.FileSource(p)
	}

	report, err := assets.Import(ctx, sources)
	if err != nil {
		return err
	}
	printReport(out, report)

	if len(report.Imported) == 0 {
		return nil
	}
	ids := make([]string, len(report.Imported))
	for i, a := range report.Imported {
		ids[i] = a.ID
	}

	if len(opts.tags) > 0 {
		tags := do.MustInvoke[*service.TagService](injector)
		for _, tag := range opts.tags {
			added, err := tags.AddTagToAssets(ctx, ids, tag)
			if err != nil {
				return fmt.Errorf("tag %q: %w", tag, err)
			}
			fmt.Fprintf(out, "tagged %d photos with %q\n", added, tag)
		}
	}

	if opts.book != "" {
		books := do.MustInvoke[*service.PhotoBookService](injector)
		book, err := books.Create(ctx, service.CreatePhotoBookRequest{
			Name:     opts.book,
			AssetIDs: ids,
			PageSize: opts.pageSize,
		})
		if err != nil {
			return fmt.Errorf("create photo-book: %w", err)
		}
		fmt.Fprintf(out, "created photo-book %s (%d pages)\n", book.ID, len(book.Pages()))
	}

	// Keep the search index current for the next server start.
	if _, err := do.Invoke[*providers.SearchServiceHandle](injector); err != nil {
		fmt.Fprintf(out, "search index not updated: %v\n", err)
	}
	return nil
}

// collect expands directories into the supported files below them. Files
// named explicitly are always kept so unsupported ones show up as failures.
func collect(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && ingest.IsSupported(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func printReport(out io.Writer, report *service.ImportReport) {
	for _, a := range report.Imported {
		fmt.Fprintf(out, "imported %s as %s (%dx%d)\n", a.FileName, a.ID, a.Width, a.Height)
	}
	for _, f := range report.Failures {
		fmt.Fprintf(out, "failed   %s: %s\n", f.FileName, f.Kind)
	}
	if report.Abandoned > 0 {
		fmt.Fprintf(out, "abandoned %d files\n", report.Abandoned)
	}
	fmt.Fprintf(out, "batch %s: %d imported, %d failed\n", report.BatchID, len(report.Imported), len(report.Failures))
}
