package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/Devinfern/sanghos-sub001/internal/compose"
	"github.com/Devinfern/sanghos-sub001/internal/config"
	httpapi "github.com/Devinfern/sanghos-sub001/internal/http"
	"github.com/Devinfern/sanghos-sub001/internal/intent"
	"github.com/Devinfern/sanghos-sub001/internal/llm"
	"github.com/Devinfern/sanghos-sub001/internal/pipeline"
	"github.com/Devinfern/sanghos-sub001/internal/scoring"
	"github.com/Devinfern/sanghos-sub001/internal/scrape"
	"github.com/Devinfern/sanghos-sub001/internal/sources"
	"github.com/Devinfern/sanghos-sub001/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := newLogger(cfg.Log)

	store, err := storage.OpenSQLite(cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("open retreat store")
	}
	defer store.Close()
	if err := store.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}
	seedStore(store, cfg.Store.SeedPath, log)

	points := scoring.DefaultPoints()
	if cfg.Scoring.PointsPath != "" {
		points, err = scoring.LoadPointsFromFile(cfg.Scoring.PointsPath)
		if err != nil {
			log.Warn().Err(err).Msg("use default scoring points")
			points = scoring.DefaultPoints()
		}
	}

	llmClient := llm.NewHTTPClient(cfg.LLM.URL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)

	var scraper *scrape.Scraper
	if cfg.Scrape.ServiceURL != "" {
		extractor := scrape.NewHTTPExtractor(cfg.Scrape.ServiceURL, cfg.Scrape.APIKey, cfg.Scrape.Timeout)
		scraper = scrape.NewScraper(extractor, cfg.Scrape.Endpoints, cfg.Scrape.MaxResults, log)
	} else {
		log.Warn().Msg("extraction service not configured, discovery scraping disabled")
	}

	providers := []sources.Provider{
		&sources.StoreProvider{Store: store},
		sources.NewPartnerProvider(),
	}

	pipe := pipeline.New(
		providers,
		scraper,
		scoring.NewEngine(points),
		compose.NewComposer(llmClient, log),
		intent.NewClassifier(llmClient, log),
		cfg.Scrape.MinCandidates,
		log,
	)

	srv := httpapi.NewServer(pipe, store, log)

	log.Info().Str("address", cfg.Server.Address).Msg("API listening")
	if err := http.ListenAndServe(cfg.Server.Address, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}

// seedStore loads the JSON seed file into an empty store. A missing seed
// file is not fatal; the store simply starts empty.
func seedStore(store *storage.SQLiteStore, seedPath string, log zerolog.Logger) {
	if seedPath == "" {
		return
	}
	n, err := store.CountRetreats()
	if err != nil {
		log.Warn().Err(err).Msg("count retreats")
		return
	}
	if n > 0 {
		return
	}
	seeds, err := storage.LoadRetreatsFromFile(seedPath)
	if err != nil {
		log.Warn().Err(err).Str("path", seedPath).Msg("seed file skipped")
		return
	}
	if err := store.UpsertMany(seeds); err != nil {
		log.Warn().Err(err).Msg("seed insert failed")
		return
	}
	log.Info().Int("retreats", len(seeds)).Msg("seeded retreat store")
}
