// Command seed-db runs migrations and loads the starter catalog, coupons,
// a Blacktop tournament, and the default admin API key.
package main

import (
	"context"
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

	"github.com/valentinsg/busy-commerce/internal/domain/blacktop"
	"github.com/valentinsg/busy-commerce/internal/domain/catalog"
	"github.com/valentinsg/busy-commerce/internal/domain/coupon"
	"github.com/valentinsg/busy-commerce/internal/handler"
	"github.com/valentinsg/busy-commerce/internal/repository"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Stock    int             `json:"stock"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or BUSY_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or BUSY_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("BUSY_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or BUSY_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("BUSY_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedBlacktop(ctx, pool); err != nil {
		return errors.Wrap(err, "seed blacktop")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	repo := repository.NewProductRepository(pool)
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		err := repo.Upsert(ctx, &catalog.Product{
			ID:       p.ID,
			Name:     p.Name,
			Slug:     p.Slug,
			Price:    p.Price,
			Category: p.Category,
			Stock:    p.Stock,
			Image: catalog.Image{
				Thumbnail: p.Image.Thumbnail,
				Mobile:    p.Image.Mobile,
				Desktop:   p.Image.Desktop,
			},
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Slug)
		}
		slog.Info("upserted product", slog.String("slug", p.Slug), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding launch coupons")

	repo := repository.NewCouponRepository(pool)
	expiry := time.Now().AddDate(0, 3, 0)
	coupons := []coupon.Coupon{
		{ID: uuid.New().String(), Code: "STREET10", Percent: decimal.NewFromInt(10), Active: true},
		{ID: uuid.New().String(), Code: "DROPDAY25", Percent: decimal.NewFromInt(25),
			Active: true, ExpiresAt: &expiry, MaxUses: 100},
	}

	for _, c := range coupons {
		if existing, err := repo.FindByCode(ctx, c.Code); err == nil && existing != nil {
			slog.Info("coupon already present", slog.String("code", c.Code))
			continue
		}
		if err := repo.Create(ctx, &c); err != nil {
			return errors.Wrapf(err, "create coupon %s", c.Code)
		}
		slog.Info("seeded coupon", slog.String("code", c.Code))
	}

	return nil
}

func seedBlacktop(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding blacktop tournament")

	repo := repository.NewBlacktopRepository(pool)
	if existing, err := repo.ListTournaments(ctx); err != nil {
		return errors.Wrap(err, "list tournaments")
	} else if len(existing) > 0 {
		slog.Info("tournaments already present, skipping")
		return nil
	}

	t := &blacktop.Tournament{
		ID:       uuid.New().String(),
		Name:     "Blacktop Invitational",
		Season:   "2026",
		StartsAt: time.Now().AddDate(0, 1, 0),
	}
	if err := repo.CreateTournament(ctx, t); err != nil {
		return errors.Wrap(err, "create tournament")
	}

	for _, name := range []string{"Northside", "Southside", "Eastside", "Westside"} {
		team := &blacktop.Team{ID: uuid.New().String(), TournamentID: t.ID, Name: name}
		if err := repo.CreateTeam(ctx, team); err != nil {
			return errors.Wrapf(err, "create team %s", name)
		}
	}

	slog.Info("seeded tournament", slog.String("name", t.Name))
	return nil
}

const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
	VALUES ($1, $2, $3, $4, TRUE)
	ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash, active = TRUE`

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	keyHash := handler.HashAPIKey([]byte(pepper), apiKey)
	_, err := pool.Exec(ctx, upsertAPIKeySQL,
		"default", keyHash, "Default admin key", []string{"admin"})
	if err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))
	return nil
}
