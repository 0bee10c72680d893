// Package config loads the risk engine's runtime configuration: solver
// tolerances, the default risk-free rate, tracked bar periods, and the
// Alpaca/websocket market-data feed credentials, the way the teacher's
// main.go loads its own env/flag block.
package config

import (
	"errors"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/quantedge/riskengine/marketdata"
)

const (
	paperTradingURL = "https://paper-api.alpaca.markets"
	liveTradingURL  = "https://api.alpaca.markets"
	liveKeyPrefix   = "AK"

	defaultSymbols       = "AAPL,MSFT,GOOG"
	defaultSolverMaxIter = 10000
	defaultSolverEpsAbs  = 1e-8
	defaultRiskFreeRate  = 0.0
	defaultMaxTurnover   = 0.5
)

// Config is the risk engine's fully resolved runtime configuration.
type Config struct {
	Symbols []string

	SolverMaxIterations int
	SolverEpsAbs        float64
	DefaultRiskFreeRate float64
	MaxTurnover         float64
	TrackedPeriods      []marketdata.Period

	AlpacaAPIKey    string
	AlpacaSecretKey string
	AlpacaBaseURL   string
	UsePaperTrading bool

	WebsocketURL string
}

// Load reads `.env` (if present), environment variables, and command-line
// flags into a Config. A missing .env file is not an error; other load
// failures are logged as warnings, matching the teacher's own
// godotenv.Load tolerance.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		// Non-fatal: the teacher's main.go only warns here too.
		log.Printf("config: could not load .env (continuing): %v", err)
	}

	symbols := flag.String("symbols", defaultSymbols, "Comma-separated list of ticker symbols")
	usePaperTrading := flag.Bool("paper", true, "Use paper trading (true) or live trading (false)")
	alpacaKey := flag.String("alpaca-key", "", "Alpaca API key (overrides env var)")
	alpacaSecret := flag.String("alpaca-secret", "", "Alpaca secret key (overrides env var)")
	riskFreeRate := flag.Float64("risk-free-rate", defaultRiskFreeRate, "Default annualized risk-free rate")
	maxTurnover := flag.Float64("max-turnover", defaultMaxTurnover, "Maximum L1 portfolio turnover from current broker positions")
	solverMaxIter := flag.Int("solver-max-iterations", defaultSolverMaxIter, "Solver iteration cap")
	solverEpsAbs := flag.Float64("solver-eps-abs", defaultSolverEpsAbs, "Solver absolute gradient-norm tolerance")
	websocketURL := flag.String("websocket-url", "", "Live tick-stream websocket URL")
	if !flag.Parsed() {
		flag.Parse()
	}

	apiKey := *alpacaKey
	secretKey := *alpacaSecret
	if *usePaperTrading {
		if apiKey == "" {
			apiKey = os.Getenv("PAPER_ALPACA_API_KEY")
		}
		if secretKey == "" {
			secretKey = os.Getenv("PAPER_ALPACA_SECRET_KEY")
		}
	} else {
		if apiKey == "" {
			apiKey = os.Getenv("LIVE_ALPACA_API_KEY")
		}
		if secretKey == "" {
			secretKey = os.Getenv("LIVE_ALPACA_SECRET_KEY")
		}
	}

	baseURL, paper := resolveTradingURL(*usePaperTrading, apiKey)
	symbolList := parseSymbols(*symbols)

	if env := os.Getenv("RISK_FREE_RATE"); env != "" {
		if v, err := strconv.ParseFloat(env, 64); err == nil {
			*riskFreeRate = v
		}
	}
	ws := *websocketURL
	if ws == "" {
		ws = os.Getenv("MARKETDATA_WEBSOCKET_URL")
	}

	return &Config{
		Symbols:             symbolList,
		SolverMaxIterations: *solverMaxIter,
		SolverEpsAbs:        *solverEpsAbs,
		DefaultRiskFreeRate: *riskFreeRate,
		MaxTurnover:         *maxTurnover,
		TrackedPeriods: []marketdata.Period{
			marketdata.Minute1,
			marketdata.Minute5,
			marketdata.Minute15,
			marketdata.Minute30,
			marketdata.Minute60,
			marketdata.Daily,
		},
		AlpacaAPIKey:    apiKey,
		AlpacaSecretKey: secretKey,
		AlpacaBaseURL:   baseURL,
		UsePaperTrading: paper,
		WebsocketURL:    ws,
	}, nil
}

// resolveTradingURL picks the Alpaca base URL, falling back to paper
// trading if live trading was requested but the API key doesn't carry the
// live-key prefix — the same safety check as the teacher's main.go.
func resolveTradingURL(usePaperTrading bool, apiKey string) (baseURL string, paper bool) {
	if usePaperTrading {
		return paperTradingURL, true
	}
	if strings.HasPrefix(apiKey, liveKeyPrefix) {
		return liveTradingURL, false
	}
	return paperTradingURL, true
}

// parseSymbols splits a comma-separated symbol list and trims whitespace.
func parseSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, s := range parts {
		parts[i] = strings.TrimSpace(s)
	}
	return parts
}
