// Command riskengine wires the config, feed, covariance, constraints, and
// optimize packages into a single run: load configuration, fetch
// historical returns, estimate a covariance matrix, solve the minimum-
// variance problem, and print the resulting weights. Not a served CLI or
// API surface — just the risk engine's minimal demonstration wiring, the
// way the teacher's main.go wires its own clients together before
// starting its trading loop.
package main

import (
	"context"
	"log"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/quantedge/riskengine/config"
	"github.com/quantedge/riskengine/constraints"
	"github.com/quantedge/riskengine/covariance"
	"github.com/quantedge/riskengine/feed"
	"github.com/quantedge/riskengine/optimize"
	"gonum.org/v1/gonum/mat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("riskengine: load config: %v", err)
	}

	tradingClient := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    cfg.AlpacaAPIKey,
		APISecret: cfg.AlpacaSecretKey,
		BaseURL:   cfg.AlpacaBaseURL,
	})
	var currentWeights []float64
	if account, err := tradingClient.GetAccount(); err != nil {
		log.Printf("riskengine: could not verify Alpaca account (continuing): %v", err)
	} else {
		log.Printf("riskengine: connected to Alpaca account %s (paper=%v)", account.ID, cfg.UsePaperTrading)
		equity, ok := account.Equity.Float64()
		if !ok || equity <= 0 {
			log.Printf("riskengine: account equity unavailable, skipping turnover constraint")
		} else if positions, err := tradingClient.GetPositions(); err != nil {
			log.Printf("riskengine: could not fetch Alpaca positions (continuing without turnover constraint): %v", err)
		} else {
			currentWeights = currentWeightsFromPositions(equity, positions, cfg.Symbols)
		}
	}

	mdClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.AlpacaAPIKey,
		APISecret: cfg.AlpacaSecretKey,
	})
	source := feed.NewHistoricalBarSource(mdClient)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	end := time.Now().UTC()
	start := end.AddDate(0, -6, 0)
	returns, err := source.ReturnMatrix(ctx, cfg.Symbols, start, end)
	if err != nil {
		log.Fatalf("riskengine: fetch return matrix: %v", err)
	}

	sigma, err := covariance.Sample(returns, 1)
	if err != nil {
		log.Fatalf("riskengine: estimate covariance: %v", err)
	}

	mu := meanReturns(returns)
	problem, err := optimize.NewProblem(mu, sigma)
	if err != nil {
		log.Fatalf("riskengine: build problem: %v", err)
	}
	problem.WithObjective(optimize.MinimizeVariance).WithRiskFreeRate(cfg.DefaultRiskFreeRate)

	if currentWeights != nil {
		turnover, err := constraints.NewTurnover(currentWeights, cfg.MaxTurnover)
		if err != nil {
			log.Fatalf("riskengine: build turnover constraint: %v", err)
		}
		problem.Constraints.Turnover = turnover
		problem.WithCurrentWeights(currentWeights)
	}

	solver := optimize.NewSolver(cfg.SolverMaxIterations, cfg.SolverEpsAbs)
	result, err := solver.Solve(problem)
	if err != nil {
		log.Fatalf("riskengine: solve: %v", err)
	}

	log.Printf("status=%s iterations=%d return=%.6f volatility=%.6f sharpe=%.4f",
		result.Status, result.Iterations, result.Return, result.Volatility, result.Sharpe)
	for i, symbol := range cfg.Symbols {
		log.Printf("  %-8s weight=%.4f", symbol, result.Weights[i])
	}
}

// currentWeightsFromPositions turns a broker's position list into a weight
// vector aligned to symbols, dividing each position's market value by
// account equity the way the teacher's updatePortfolio does with
// pos.MarketValue.Float64() and account.Equity.Float64(). Symbols with no
// open position get weight 0.
func currentWeightsFromPositions(equity float64, positions []alpaca.Position, symbols []string) []float64 {
	bySymbol := make(map[string]float64, len(positions))
	for _, pos := range positions {
		marketValue, ok := pos.MarketValue.Float64()
		if !ok {
			continue
		}
		bySymbol[pos.Symbol] = marketValue
	}

	weights := make([]float64, len(symbols))
	for i, symbol := range symbols {
		weights[i] = bySymbol[symbol] / equity
	}
	return weights
}

func meanReturns(r *mat.Dense) []float64 {
	rows, cols := r.Dims()
	mu := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += r.At(i, j)
		}
		mu[j] = sum / float64(rows)
	}
	return mu
}
