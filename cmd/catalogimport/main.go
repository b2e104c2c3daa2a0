// Command catalogimport loads a "Top N restaurants" spreadsheet into a
// profile's restaurant catalog.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/clcruickshank2/datenight/internal/config"
	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/infrastructure/storage"
	"github.com/clcruickshank2/datenight/pkg/logger"
)

const upsertChunk = 50

type options struct {
	xlsx      string
	profileID string
	status    domain.RestaurantStatus
	dryRun    bool
	verbose   bool
}

// catalogWriter is the storage surface the import needs.
type catalogWriter interface {
	ProfileExists(ctx context.Context, id string) (bool, error)
	UpsertRestaurants(ctx context.Context, batch []domain.Restaurant) error
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.New("catalogimport", opts.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rows, err := readSheet(opts.xlsx)
	if err != nil {
		log.Error("read spreadsheet", "path", opts.xlsx, "error", err)
		os.Exit(1)
	}
	log.Debug("spreadsheet parsed", "rows", len(rows))

	if opts.dryRun {
		if err := writeDryRun(os.Stdout, opts, rows); err != nil {
			log.Error("dry run output", "error", err)
			os.Exit(1)
		}
		return
	}

	cfg := config.Load()
	if cfg.Database.DSN == "" {
		log.Error("DATABASE_DSN is not set")
		os.Exit(1)
	}
	pool, err := storage.NewPostgresPool(ctx, cfg.Database.DSN)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	err = importRows(ctx, storage.NewPostgresRepository(pool), os.Stdout, opts, rows)
	pool.Close()
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("catalogimport", flag.ContinueOnError)
	var (
		opts   options
		rawID  string
		status string
	)
	fs.StringVar(&opts.xlsx, "xlsx", "", "path to the .xlsx file")
	fs.StringVar(&rawID, "profile-id", "0001", "profile UUID or numeric shorthand such as 0001")
	fs.StringVar(&status, "status", string(domain.StatusActive), "catalog status for imported rows: active or backlog")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "parse and print a summary without writing")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.xlsx == "" {
		return options{}, errors.New("--xlsx is required")
	}
	if _, err := os.Stat(opts.xlsx); err != nil {
		return options{}, fmt.Errorf("xlsx not found: %s", opts.xlsx)
	}
	id, err := profileID(rawID)
	if err != nil {
		return options{}, err
	}
	opts.profileID = id

	switch domain.RestaurantStatus(status) {
	case domain.StatusActive, domain.StatusBacklog:
		opts.status = domain.RestaurantStatus(status)
	default:
		return options{}, fmt.Errorf("--status must be active or backlog, got %q", status)
	}
	return opts, nil
}

func writeDryRun(w io.Writer, opts options, rows []domain.Restaurant) error {
	sample := rows
	if len(sample) > 5 {
		sample = sample[:5]
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"profile_id": opts.profileID,
		"status":     opts.status,
		"rows":       len(rows),
		"sample":     sample,
	})
}

// importRows checks the profile and upserts rows by (profile_id, name) in chunks.
func importRows(ctx context.Context, store catalogWriter, w io.Writer, opts options, rows []domain.Restaurant) error {
	exists, err := store.ProfileExists(ctx, opts.profileID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("profile_id %s does not exist in profiles; create the profile first", opts.profileID)
	}

	for start := 0; start < len(rows); start += upsertChunk {
		end := min(start+upsertChunk, len(rows))
		batch := make([]domain.Restaurant, 0, end-start)
		for _, r := range rows[start:end] {
			r.ProfileID = opts.profileID
			r.Status = opts.status
			batch = append(batch, r)
		}
		if err := store.UpsertRestaurants(ctx, batch); err != nil {
			return fmt.Errorf("upsert rows %d-%d: %w", start+1, end, err)
		}
		fmt.Fprintf(w, "Upserted %d/%d\n", end, len(rows))
	}

	fmt.Fprintf(w, "Done. Imported %d restaurants to profile_id=%s with status=%s\n", len(rows), opts.profileID, opts.status)
	return nil
}
