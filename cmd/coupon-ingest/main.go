// Command coupon-ingest bulk-loads one-off promotional coupon codes into the
// offers table. Input is one or more gzipped text files with one code per
// line, the format campaign printers deliver. Codes are deduplicated with a
// bloom filter before hitting the database, then inserted via COPY.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/breakhq/break-pos/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	minCodeLen    = 6
	maxCodeLen    = 12
	batchSize     = 10_000
)

func main() {
	var (
		dataDir       string
		databaseURL   string
		offerName     string
		discountType  string
		discountValue string
		validDays     int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&offerName, "offer-name", "Promo coupon", "name for the generated offers")
	flag.StringVar(&discountType, "discount-type", "percentage", "discount type: percentage or fixed_amount")
	flag.StringVar(&discountValue, "discount-value", "10", "discount value")
	flag.IntVar(&validDays, "valid-days", 90, "number of days the coupons stay active")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := ingestConfig{
		dataDir:       dataDir,
		offerName:     offerName,
		discountType:  discountType,
		discountValue: discountValue,
		validDays:     validDays,
	}
	if err := run(ctx, databaseURL, cfg); err != nil {
		slog.Error("ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type ingestConfig struct {
	dataDir       string
	offerName     string
	discountType  string
	discountValue string
	validDays     int
}

func run(ctx context.Context, databaseURL string, cfg ingestConfig) error {
	files, err := filepath.Glob(filepath.Join(cfg.dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no .gz files found in %s", cfg.dataDir)
	}

	slog.Info("scanning code files", slog.Int("files", len(files)))

	// Scan all files in parallel, deduplicating across the whole batch.
	// The bloom filter rejects repeats cheaply; the map holds survivors.
	var (
		mu     sync.Mutex
		filter = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		codes  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			return scanFile(gctx, path, func(code string) {
				mu.Lock()
				defer mu.Unlock()
				if filter.TestAndAddString(code) {
					return // probable duplicate
				}
				codes = append(codes, code)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("codes collected", slog.Int("unique", len(codes)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	inserted, err := insertOffers(ctx, pool, codes, cfg)
	if err != nil {
		return err
	}

	slog.Info("ingest completed", slog.Int("offers", inserted))
	return nil
}

// scanFile streams one gzipped code file, emitting every plausible code.
func scanFile(ctx context.Context, path string, emit func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader %s", path)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	lines := 0
	for scanner.Scan() {
		lines++
		if lines%100_000 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		code := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		emit(code)
	}
	return errors.Wrapf(scanner.Err(), "scan %s", path)
}

// insertOffers COPYs one offer row per coupon code in batches.
func insertOffers(ctx context.Context, pool *pgxpool.Pool, codes []string, cfg ingestConfig) (int, error) {
	now := time.Now().UTC()
	until := now.AddDate(0, 0, cfg.validDays)
	columns := []string{"name", "description", "discount_type", "discount_value", "start_date", "end_date", "active", "coupon_code"}

	total := 0
	for start := 0; start < len(codes); start += batchSize {
		end := min(start+batchSize, len(codes))
		batch := codes[start:end]

		rows := make([][]any, len(batch))
		for i, code := range batch {
			rows[i] = []any{
				cfg.offerName, "Imported coupon " + code, cfg.discountType,
				cfg.discountValue, now, until, true, code,
			}
		}

		n, err := pool.CopyFrom(ctx, pgx.Identifier{"offers"}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return total, errors.Wrap(err, "copy offers")
		}
		total += int(n)
	}
	return total, nil
}
