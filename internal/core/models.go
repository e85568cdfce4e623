// Package core defines the canonical entities that
// every other package in this module reads and writes. Entities hold
// identifiers, not object references — joins happen at query time in the
// store, never via in-memory graphs (Game/Team/Odds never point at each
// other directly).
package core

import "time"

// League identifies a supported sport/league (e.g. "nfl", "ncaaf").
type League string

const (
	LeagueNFL   League = "nfl"
	LeagueNCAAF League = "ncaaf"
)

// TeamID is the canonical identifier for a team within a league.
type TeamID string

// GameID is the synthetic identifier "{away}_{home}_{yyyymmdd}".
type GameID string

// GameStatus is the lifecycle state of a scheduled game.
type GameStatus string

const (
	GameScheduled  GameStatus = "scheduled"
	GameInProgress GameStatus = "in_progress"
	GameFinal      GameStatus = "final"
	GamePostponed  GameStatus = "postponed"
	GameCanceled   GameStatus = "canceled"
)

// Severity classifies an injury's expected impact.
type Severity string

const (
	SeverityHealthy  Severity = "healthy"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// BetResult is the settled outcome of a wager.
type BetResult string

const (
	ResultWin  BetResult = "win"
	ResultLoss BetResult = "loss"
	ResultPush BetResult = "push"
	ResultVoid BetResult = "void"
)

// Side is which team a recommendation favors.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Team is the canonical identifier plus display metadata.
// Immutable within a season; rebuilt per season.
type Team struct {
	League       League
	TeamID       TeamID
	Name         string
	Abbreviation string
	Conference   string
	Division     string
}

// TeamStats is one team's season-aggregate performance metrics, captured
// independently of its power rating (ppg, papg, yardage, turnover margin,
// 3rd-down %).
type TeamStats struct {
	League               League
	Season               int
	Team                 TeamID
	PointsPerGame        float64
	PointsAgainstPerGame float64
	YardsPerGame         float64
	TurnoverMargin       float64
	ThirdDownPct         float64
	Source               string
	CapturedAt           time.Time
}

// Game is the natural-keyed scheduling record.
type Game struct {
	GameID       GameID
	League       League
	Season       int
	Week         int
	AwayTeam     TeamID
	HomeTeam     TeamID
	Kickoff      time.Time // UTC
	Venue        string
	Indoor       bool
	Status       GameStatus
	AwayScore    *int
	HomeScore    *int
}

// NaturalKey returns the (league, season, away, home, date) tuple that
// identifies this game independent of any source-assigned ID.
func (g Game) NaturalKey() (League, int, TeamID, TeamID, string) {
	return g.League, g.Season, g.AwayTeam, g.HomeTeam, g.Kickoff.Format("2006-01-02")
}

// RatingHistoryCap is the length of the capped ring buffer of recent ratings.
const RatingHistoryCap = 10

// TeamRating is a team's power rating as of a given week.
type TeamRating struct {
	League      League
	Season      int
	Team        TeamID
	AsOfWeek    int
	Rating      float64
	GamesPlayed int
	// History holds up to RatingHistoryCap most recent ratings, oldest first.
	History []float64
}

// PushHistory appends rating to History, evicting the oldest entry once the
// ring exceeds RatingHistoryCap.
func (r *TeamRating) PushHistory(rating float64) {
	r.History = append(r.History, rating)
	if len(r.History) > RatingHistoryCap {
		r.History = r.History[len(r.History)-RatingHistoryCap:]
	}
}

// GameResult identifies a completed game from one team's perspective, the
// unit of work the rating engine consumes. Immutable
// after insertion.
type GameResult struct {
	Team              TeamID
	Opponent          TeamID
	TeamScore         int
	OpponentScore     int
	IsHome            bool
	League            League
	Date              time.Time
	InjuryDifferential float64
	GameID            GameID
}

// ScoreDifferential returns team_score - opponent_score.
func (r GameResult) ScoreDifferential() int {
	return r.TeamScore - r.OpponentScore
}

// Odds is a single book's captured line for a game.
type Odds struct {
	GameID      GameID
	Sportsbook  string
	CapturedAt  time.Time
	HomeSpread  float64
	AwaySpread  float64
	Total       float64
	HomeML      int
	AwayML      int
	Suspect     bool // set by the normalizer when home+away spreads don't sum to ~0
}

// Valid reports whether the spread-sum invariant holds within
// tolerance and the total is positive.
func (o Odds) Valid() bool {
	sum := o.HomeSpread + o.AwaySpread
	return sum <= 0.01 && sum >= -0.01 && o.Total > 0
}

// InjuryReport is a point-in-time injury status for a player.
type InjuryReport struct {
	Team             TeamID
	PlayerName       string
	Position         string
	Status           string
	CapturedAt       time.Time
	PointValue       float64
	ReplacementValue float64
	Severity         Severity
	Confidence       float64
	Source           string
}

// StaleAfter is the lifecycle threshold beyond which an injury report is
// considered stale.
const StaleAfter = 72 * time.Hour

// Stale reports whether the injury report has aged past StaleAfter relative
// to now.
func (i InjuryReport) Stale(now time.Time) bool {
	return now.Sub(i.CapturedAt) > StaleAfter
}

// PrecipitationKind enumerates weather precipitation categories.
type PrecipitationKind string

const (
	PrecipNone  PrecipitationKind = "none"
	PrecipRain  PrecipitationKind = "rain"
	PrecipSnow  PrecipitationKind = "snow"
	PrecipMixed PrecipitationKind = "mixed"
)

// WeatherReport is a point-in-time forecast for a game.
type WeatherReport struct {
	GameID                   GameID
	CapturedAt               time.Time
	TempF                    float64
	WindMPH                  float64
	PrecipitationKind        PrecipitationKind
	PrecipitationProbability float64
	Indoor                   bool
}

// GameContext is the transient, per-analysis assembly of everything the
// factor calculator and edge detector need. It is never
// persisted; it is built fresh for each detection run.
type GameContext struct {
	Game     Game
	Home     Team
	Away     Team
	Injuries map[TeamID][]InjuryReport
	Weather  *WeatherReport

	// Situational inputs, one value per side unless noted.
	RestDaysHome       int
	RestDaysAway       int
	TravelMilesAway    float64
	TravelTimezones    int
	Divisional         bool
	Rivalry            bool
	Revenge            map[TeamID]bool
	ATSLast5Home       [5]bool // true = covered
	ATSLast5Away       [5]bool

	// Emotional inputs.
	PlayoffEliminationFor map[TeamID]bool
	PlayoffClinchFor      map[TeamID]bool
	SeedingImplications   map[TeamID]bool
	NewHeadCoachFirstYear map[TeamID]bool
	KeyReturningStar      map[TeamID]bool
}

// StarsRating is the discrete confidence tier a Prediction carries.
type StarsRating float64

const (
	Stars0   StarsRating = 0.0
	Stars0_5 StarsRating = 0.5
	Stars1   StarsRating = 1.0
	Stars1_5 StarsRating = 1.5
	Stars2   StarsRating = 2.0
	Stars2_5 StarsRating = 2.5
	Stars3   StarsRating = 3.0
)

// EdgeCategory is a reporting-only classification of edge strength; it does
// not affect staking.
type EdgeCategory string

const (
	EdgeNone       EdgeCategory = "none"
	EdgeMedium     EdgeCategory = "medium"
	EdgeStrong     EdgeCategory = "strong"
	EdgeVeryStrong EdgeCategory = "very_strong"
)

// PredictionStatus tracks a Prediction through settlement.
type PredictionStatus string

const (
	PredictionPending PredictionStatus = "pending"
	PredictionOpen    PredictionStatus = "open"
	PredictionSettled PredictionStatus = "settled"
)

// Prediction is one model run's output for a game. One
// live prediction exists per (game_id, model_version); historical
// predictions are retained, never overwritten.
type Prediction struct {
	PredictionID     string
	GameID           GameID
	ModelVersion     string
	GeneratedAt      time.Time
	PredictedSpread  float64
	PredictedTotal   float64
	MarketSpread     float64
	MarketTotal      float64
	EdgePoints       float64
	EdgePercentage   float64
	EdgeCategory     EdgeCategory
	StarsRating      StarsRating
	RecommendedSide  Side
	StakeUnits       float64
	KellyFraction    float64
	ConfidenceScore  float64
	ReasoningText    string
	Status           PredictionStatus

	// Snapshot of every input used, for reproducibility (P3 idempotency).
	RatingSnapshot  map[TeamID]float64
	OddsSnapshot    Odds
	FactorSummary   string
}

// EqualIgnoringTimestamp reports whether two predictions carry identical
// payloads ignoring GeneratedAt and PredictionID — the property P3 tests.
func (p Prediction) EqualIgnoringTimestamp(o Prediction) bool {
	return p.GameID == o.GameID &&
		p.ModelVersion == o.ModelVersion &&
		p.PredictedSpread == o.PredictedSpread &&
		p.PredictedTotal == o.PredictedTotal &&
		p.MarketSpread == o.MarketSpread &&
		p.MarketTotal == o.MarketTotal &&
		p.EdgePoints == o.EdgePoints &&
		p.EdgePercentage == o.EdgePercentage &&
		p.StarsRating == o.StarsRating &&
		p.RecommendedSide == o.RecommendedSide &&
		p.StakeUnits == o.StakeUnits &&
		p.KellyFraction == o.KellyFraction
}

// SettledBet is the settlement outcome of a Prediction.
// Once Result is set it is never rewritten except via an explicit void.
type SettledBet struct {
	PredictionID string
	GameID       GameID
	Result       BetResult
	Profit       float64
	CLV          float64
	SettledAt    time.Time
}

// CollectionSession links all writes from one orchestrator run.
type CollectionSession struct {
	SessionID  string
	League     League
	StartedAt  time.Time
	FinishedAt time.Time
	Status     SessionStatus
	Steps      []SourceStepMetric
}

// SessionStatus is the terminal state of a collection session.
type SessionStatus string

const (
	SessionOK       SessionStatus = "ok"
	SessionDegraded SessionStatus = "degraded"
	SessionFailed   SessionStatus = "failed"
	SessionAborted  SessionStatus = "aborted"
)

// SourceStepMetric records one source step's outcome within a session.
type SourceStepMetric struct {
	Source    string
	StartedAt time.Time
	EndedAt   time.Time
	OK        bool
	Records   int
	Errors    []string
	Critical  bool
}
