package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/breakhq/break-pos/internal/domain/item"
	"github.com/breakhq/break-pos/internal/repository"
)

type itemJSON struct {
	ProductCode     string          `json:"productCode"`
	Barcode         string          `json:"barcode"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	QuantityInStock int             `json:"quantityInStock"`
	ReorderQuantity int             `json:"reorderQuantity"`
	MinStockLevel   int             `json:"minStockLevel"`
	MaxStockLevel   int             `json:"maxStockLevel"`
}

// seedOffer is one demo promotion inserted when the offers table is empty.
type seedOffer struct {
	name          string
	description   string
	discountType  string
	discountValue string
	couponCode    string
	minAmount     string // adds a total_amount condition when non-empty
}

var seedOffers = []seedOffer{
	{
		name:          "10% over 20",
		description:   "10% off carts of 20.00 or more",
		discountType:  "percentage",
		discountValue: "10",
		minAmount:     "20",
	},
	{
		name:          "SAVE10 coupon",
		description:   "Flat 10.00 off with coupon SAVE10",
		discountType:  "fixed_amount",
		discountValue: "10",
		couponCode:    "SAVE10",
	},
}

func main() {
	var (
		databaseURL  string
		itemsFile    string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to items JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or BREAK_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or BREAK_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("BREAK_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or BREAK_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("BREAK_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedItems(ctx, itemsFile, repository.NewItemRepository(pool)); err != nil {
		return errors.Wrap(err, "seed items")
	}
	if err := seedOffersTable(ctx, pool); err != nil {
		return errors.Wrap(err, "seed offers")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	return nil
}

func seedItems(ctx context.Context, path string, repo *repository.ItemRepository) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read items file")
	}

	var items []itemJSON
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "parse items file")
	}

	created := 0
	for _, in := range items {
		it := &item.Item{
			ProductCode:     in.ProductCode,
			Barcode:         in.Barcode,
			Name:            in.Name,
			Description:     in.Description,
			Category:        in.Category,
			UnitPrice:       in.UnitPrice,
			QuantityInStock: in.QuantityInStock,
			ReorderQuantity: in.ReorderQuantity,
			MinStockLevel:   in.MinStockLevel,
			MaxStockLevel:   in.MaxStockLevel,
		}
		if err := repo.Create(ctx, it); err != nil {
			if errors.Is(err, item.ErrDuplicateCode) {
				continue // already seeded
			}
			return errors.Wrapf(err, "create item %s", in.ProductCode)
		}
		created++
	}

	slog.Info("items seeded", slog.Int("created", created), slog.Int("total", len(items)))
	return nil
}

func seedOffersTable(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM offers`).Scan(&count); err != nil {
		return errors.Wrap(err, "count offers")
	}
	if count > 0 {
		slog.Info("offers already seeded", slog.Int("count", count))
		return nil
	}

	now := time.Now().UTC()
	for _, o := range seedOffers {
		var offerID int64
		err := pool.QueryRow(ctx, `INSERT INTO offers
				(name, description, discount_type, discount_value, start_date, end_date, active, coupon_code)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
			RETURNING id`,
			o.name, o.description, o.discountType, o.discountValue,
			now, now.AddDate(1, 0, 0), o.couponCode,
		).Scan(&offerID)
		if err != nil {
			return errors.Wrapf(err, "insert offer %q", o.name)
		}

		if o.minAmount != "" {
			_, err = pool.Exec(ctx, `INSERT INTO offer_conditions (offer_id, condition_type, min_amount)
				VALUES ($1, 'total_amount', $2)`, offerID, o.minAmount)
			if err != nil {
				return errors.Wrapf(err, "insert condition for offer %q", o.name)
			}
		}
	}

	slog.Info("offers seeded", slog.Int("created", len(seedOffers)))
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	hash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `INSERT INTO api_keys (id, key_hash, label, scopes)
		VALUES ($1, $2, 'seed', '{admin}')
		ON CONFLICT (key_hash) DO NOTHING`, uuid.New().String(), hash)
	if err != nil {
		return errors.Wrap(err, "insert api key")
	}

	slog.Info("api key seeded")
	return nil
}
