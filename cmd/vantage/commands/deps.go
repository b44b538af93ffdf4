package commands

import (
	"fmt"

	"github.com/wonny/vantage/internal/calendar"
	"github.com/wonny/vantage/internal/data"
	"github.com/wonny/vantage/internal/external/scrape"
	"github.com/wonny/vantage/internal/external/yahoo"
	"github.com/wonny/vantage/internal/modelstore"
	"github.com/wonny/vantage/internal/pipeline"
	"github.com/wonny/vantage/pkg/config"
	"github.com/wonny/vantage/pkg/database"
	"github.com/wonny/vantage/pkg/httputil"
	"github.com/wonny/vantage/pkg/logger"
	vredis "github.com/wonny/vantage/pkg/redis"
)

// deps wires the shared application graph once per command invocation
// ⭐ SSOT: 의존성 조립은 여기서만
type deps struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *vredis.Client
	cache *vredis.Cache

	prices    *data.PriceRepository
	vols      *data.VolatilityRepository
	snapshots *data.SnapshotRepository
	store     *modelstore.Store
	calendar  *calendar.Calendar

	ingestor *pipeline.Ingestor
	trainer  *pipeline.Trainer
}

// buildDeps loads config and constructs the shared graph.
func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := vredis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	cal := calendar.Default()
	if cfg.CalendarPath != "" {
		cal, err = calendar.Load(cfg.CalendarPath)
		if err != nil {
			redisClient.Close()
			db.Close()
			return nil, fmt.Errorf("load trading calendar: %w", err)
		}
	}

	httpClient := httputil.NewWithTimeout(cfg, log, cfg.Yahoo.Timeout)
	chartClient := yahoo.NewClient(httpClient, log, cfg.Yahoo)
	scraper := scrape.NewVolatilityScraper(httpClient, log, cfg.Scrape)

	prices := data.NewPriceRepository(db.Pool)
	vols := data.NewVolatilityRepository(db.Pool)
	snapshots := data.NewSnapshotRepository(db.Pool)
	store := modelstore.New(cfg.Models.Dir, log.Zerolog())

	return &deps{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     redisClient,
		cache:     vredis.NewCache(redisClient, "vantage"),
		prices:    prices,
		vols:      vols,
		snapshots: snapshots,
		store:     store,
		calendar:  cal,
		ingestor:  pipeline.NewIngestor(chartClient, scraper, prices, vols, log.Zerolog()),
		trainer:   pipeline.NewTrainer(prices, vols, store, cfg.Models, log.Zerolog()),
	}, nil
}

// runner builds an inference runner. quotes may be nil.
func (d *deps) runner(quotes pipeline.QuoteSource) *pipeline.Runner {
	var publisher pipeline.SnapshotPublisher
	if d.redis.Enabled() {
		publisher = d.cache
	}
	return pipeline.NewRunner(
		d.prices, d.vols, d.snapshots, d.store,
		quotes, publisher, d.cfg.Models, d.log.Zerolog(),
	)
}

// close releases the shared resources.
func (d *deps) close() {
	if d.redis != nil {
		d.redis.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}
