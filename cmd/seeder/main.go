package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"paden/internal/adapters/observability"
	redisad "paden/internal/adapters/redis"
	"paden/internal/app"
	"paden/internal/domain"
	"paden/internal/shared"
	mysqlrepo "paden/internal/storage/mysql"
)

// demo listings for local development and the assistant's happy path
var seedProperties = []domain.Property{
	{Title: "Goshen House", Description: "Quiet boarding house five minutes' walk from MSU main campus.", Price: 75, Location: "Senga, Gweru", Amenities: []string{"wifi", "borehole water", "study room"}, Images: []string{"https://images.paden.example/goshen-1.jpg", "https://images.paden.example/goshen-2.jpg"}},
	{Title: "MSU View Cottage", Description: "Self-contained two-room cottage with its own entrance.", Price: 120, Location: "Nehosho, Gweru", Amenities: []string{"solar backup", "fitted kitchen"}, Images: []string{"https://images.paden.example/msu-view.jpg"}},
	{Title: "Senga Single Rooms", Description: "Affordable single rooms sharing kitchen and bathroom.", Price: 55, Location: "Senga, Gweru", Amenities: []string{"borehole water"}, Images: nil},
	{Title: "Avondale Apartment", Description: "Modern one-bed apartment close to shops and transport.", Price: 250, Location: "Avondale, Harare", Amenities: []string{"wifi", "parking", "security"}, Images: []string{"https://images.paden.example/avondale.jpg"}},
	{Title: "UZ Boarding House", Description: "Boarding house popular with UZ students, meals optional.", Price: 90, Location: "Mount Pleasant, Harare", Amenities: []string{"meals", "laundry"}, Images: []string{"https://images.paden.example/uz-boarding.jpg"}},
	{Title: "CBD City Rooms", Description: "Shared rooms in the city centre, ideal for working singles.", Price: 60, Location: "Harare CBD", Amenities: []string{"security"}, Images: nil},
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().Int("workers", cfg.SeedWorkers).Int("listings", len(seedProperties)).Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)

	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for _, p := range seedProperties {
		p := p
		if p.ID == "" {
			p.ID = uuid.NewString()
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(prop domain.Property) {
			defer wg.Done()
			defer sem.Release(1)

			if err := repo.UpsertProperty(ctx, prop); err != nil {
				log.Warn().Str("title", prop.Title).Err(err).Msg("seed failed")
				return
			}
			// drop stale read-API caches for this listing and common list sizes
			q.Invalidate(ctx, prop.ID, 10, 20, 50)
			log.Info().Str("id", prop.ID).Str("title", prop.Title).Msg("seed ok")
		}(p)
	}

	wg.Wait()
	log.Info().Msg("seeding completed")
}
