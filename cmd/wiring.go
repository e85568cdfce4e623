package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/edgeline/edge-engine/internal/adapters/espn"
	"github.com/edgeline/edge-engine/internal/adapters/oddsprovider"
	"github.com/edgeline/edge-engine/internal/adapters/ratings"
	"github.com/edgeline/edge-engine/internal/adapters/weather"
	"github.com/edgeline/edge-engine/internal/archive"
	"github.com/edgeline/edge-engine/internal/cache"
	"github.com/edgeline/edge-engine/internal/config"
	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/normalize"
	"github.com/edgeline/edge-engine/internal/reliability"
	"github.com/edgeline/edge-engine/internal/store"
	"github.com/edgeline/edge-engine/internal/transport"
)

// runtime bundles every dependency a pipeline command needs, built once per
// invocation from the global config. It outlives a single command's RunE so
// the serve command's scheduler can reuse it across ticks.
type runtime struct {
	cfg *config.Config
	db  *store.DB

	games       *store.GameRepository
	teams       *store.TeamRepository
	teamStats   *store.TeamStatsRepository
	injuries    *store.InjuryRepository
	weather     *store.WeatherRepository
	odds        *store.OddsRepository
	ratings     *store.RatingRepository
	gameResults *store.GameResultRepository
	predictions *store.PredictionRepository
	settledBets *store.SettledBetRepository
	sessions    *store.SessionRepository

	teamMapper *normalize.TeamMapper
	calendar   *normalize.SeasonCalendar
	normalizer *normalize.Normalizer
	archiver   *archive.Store
	cache      *cache.Client
}

// sourceClients is the set of per-league adapters built on top of one
// shared reliability.Client per logical source.
type sourceClients struct {
	espn    *espn.Client
	odds    *oddsprovider.Client
	weather *weather.Client
	ratings *ratings.Client
}

func newRuntime(cfg *config.Config, archiveRoot string) (*runtime, error) {
	db, err := store.Connect(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	teamMapper := normalize.NewTeamMapper()
	calendar := normalize.NewSeasonCalendar()
	cacheClient := cache.NewClient(newRedisClient(cfg), cache.Config{
		App:     "edge-engine",
		Env:     "prod",
		Version: cfg.Cache.Version,
		Enabled: cfg.Cache.Enabled,
		TTLs: cache.TTLConfig{
			Weather:  cfg.Cache.TTLs.Weather,
			Injuries: cfg.Cache.TTLs.Injuries,
			Odds:     cfg.Cache.TTLs.Odds,
			Analysis: cfg.Cache.TTLs.Analysis,
		},
	})

	rt := &runtime{
		cfg:         cfg,
		db:          db,
		games:       store.NewGameRepository(db.DB),
		teams:       store.NewTeamRepository(db.DB),
		teamStats:   store.NewTeamStatsRepository(db.DB),
		injuries:    store.NewInjuryRepository(db.DB),
		weather:     store.NewWeatherRepository(db.DB),
		odds:        store.NewOddsRepository(db.DB),
		ratings:     store.NewRatingRepository(db),
		gameResults: store.NewGameResultRepository(db.DB),
		predictions: store.NewPredictionRepository(db.DB),
		settledBets: store.NewSettledBetRepository(db.DB),
		sessions:    store.NewSessionRepository(db.DB),
		teamMapper:  teamMapper,
		calendar:    calendar,
		normalizer:  normalize.NewNormalizer(teamMapper, calendar),
		archiver:    archive.NewStore(archiveRoot),
		cache:       cacheClient,
	}
	return rt, nil
}

func (rt *runtime) close() error {
	return rt.db.Close()
}

// newRedisClient returns nil when no Redis URL is configured, in which case
// reliability falls back to in-process-only rate limiting.
func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.URL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil
	}
	return redis.NewClient(opts)
}

// sourcesFor builds one reliability-wrapped client per source for a league,
// each on its own breaker and rate limiter so a degraded odds feed can't
// trip the weather feed's breaker.
func sourcesFor(cfg *config.Config, pool *transport.Pool, redisClient *redis.Client, league core.League) sourceClients {
	policy := func(name string) reliability.Policy {
		p := reliability.DefaultPolicy(name)
		if cfg.Reliability.RateLimitInterval > 0 {
			p.RateLimitInterval = cfg.Reliability.RateLimitInterval
		}
		if cfg.Reliability.MaxRetries > 0 {
			p.MaxRetries = cfg.Reliability.MaxRetries
		}
		if cfg.Reliability.RetryBaseDelay > 0 {
			p.RetryBaseDelay = cfg.Reliability.RetryBaseDelay
		}
		if cfg.Reliability.RetryMaxDelay > 0 {
			p.RetryMaxDelay = cfg.Reliability.RetryMaxDelay
		}
		if cfg.Reliability.BreakerFailureMax > 0 {
			p.BreakerFailureMax = cfg.Reliability.BreakerFailureMax
		}
		if cfg.Reliability.BreakerResetTimeout > 0 {
			p.BreakerResetTimeout = cfg.Reliability.BreakerResetTimeout
		}
		return p
	}

	sportKey := "americanfootball_nfl"
	if league == core.LeagueNCAAF {
		sportKey = "americanfootball_ncaaf"
	}

	return sourceClients{
		espn:    espn.NewClient(reliability.NewClient(pool, policy("espn."+string(league)), redisClient), league, "https://site.api.espn.com/apis/site/v2/sports/football/"+string(league)),
		odds:    oddsprovider.NewClient(reliability.NewClient(pool, policy("odds."+string(league)), redisClient), "https://api.the-odds-api.com", cfg.OddsAPIKey, sportKey),
		weather: weather.NewClient(reliability.NewClient(pool, policy("weather."+string(league)), redisClient), "https://api.openweathermap.org/data/2.5", cfg.WeatherAPIKey),
		ratings: ratings.NewClient(reliability.NewClient(pool, policy("ratings."+string(league)), redisClient), league, cfg.RatingsFeedURL, ratings.FormatJSON),
	}
}

// exitError carries a non-default process exit code up through cobra's
// error-returning RunE without cobra itself knowing about exit codes.
// cli's main() unwraps it; every other error defaults to exit 1.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error { return e.err }

// ExitCode returns the process exit code for an error returned from one of
// this package's commands: 0 for a nil error, an exitError's own code, or 1
// for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee exitError
	if ok := asExitError(err, &ee); ok {
		return ee.code
	}
	return 1
}

func asExitError(err error, target *exitError) bool {
	for err != nil {
		if ee, ok := err.(exitError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func leagueFromFlag(value string) (core.League, error) {
	switch value {
	case "nfl":
		return core.LeagueNFL, nil
	case "ncaaf":
		return core.LeagueNCAAF, nil
	default:
		return "", fmt.Errorf("unknown league %q (want nfl or ncaaf)", value)
	}
}
