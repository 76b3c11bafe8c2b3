// Command microhedger is the thin CLI/HTTP glue around the batch
// Monte-Carlo market simulator: it is explicitly not part of the core
// budget (spec.md §1), which lives entirely under internal/.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/efreitasn/microhedger/internal/config"
	"github.com/efreitasn/microhedger/internal/httpapi"
	"github.com/efreitasn/microhedger/internal/lob"
	"github.com/efreitasn/microhedger/internal/sim"
	"github.com/efreitasn/microhedger/internal/simrand"
)

// scenarioFile is the on-disk shape of a batch-run scenario. It carries
// the same simulation fields as httpapi's request body, but each book
// side is given as flat ask_/bid_ price and volume arrays rather than
// nested "asks"/"bids" objects, so a document written for one surface is
// rejected by the other.
type scenarioFile struct {
	NPaths                  int       `json:"n_paths"`
	NDays                   int       `json:"n_days"`
	NHours                  int       `json:"n_hours"`
	NQuarters               int       `json:"n_quarters"`
	InitialFundamental      float64   `json:"initial_fundamental"`
	DecayCoefficient        float64   `json:"decay_coefficient"`
	AskPrices               []float64 `json:"ask_prices"`
	AskVolumes              []float64 `json:"ask_volumes"`
	BidPrices               []float64 `json:"bid_prices"`
	BidVolumes              []float64 `json:"bid_volumes"`
	HedgerOptionPosition    float64   `json:"hedger_option_position"`
	HedgerImpliedVolatility float64   `json:"hedger_implied_volatility"`
	Seed                    int64     `json:"seed"`
	VolNews                 float64   `json:"vol_news"`
	OrderIntensity          float64   `json:"order_intensity"`
	ProbLimit               float64   `json:"prob_limit"`
	ProbInformed            float64   `json:"prob_informed"`
	VolMin                  float64   `json:"vol_min"`
	VolMax                  float64   `json:"vol_max"`
	MeanSpread              float64   `json:"mean_spread"`
	VolSpread               float64   `json:"vol_spread"`
	ProbSign                float64   `json:"prob_sign"`
}

func main() {
	serve := flag.Bool("serve", false, "Run the HTTP results server instead of a one-shot batch run")
	scenarioPath := flag.String("scenario", "", "Path to a JSON scenario file (required unless -serve)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := lob.SetTickSize(cfg.DefaultTickSize); err != nil {
		logger.Error("failed to set tick size", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *serve {
		runServer(cfg, logger)
		return
	}

	if *scenarioPath == "" {
		logger.Error("-scenario is required in batch mode (or pass -serve)")
		os.Exit(1)
	}
	if err := runBatch(*scenarioPath, logger); err != nil {
		logger.Error("batch run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func loadScenario(path string) (scenarioFile, error) {
	var sf scenarioFile
	f, err := os.Open(path)
	if err != nil {
		return sf, fmt.Errorf("open scenario file: %w", err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sf); err != nil {
		return sf, fmt.Errorf("decode scenario file: %w", err)
	}
	return sf, nil
}

func runBatch(scenarioPath string, logger *slog.Logger) error {
	sf, err := loadScenario(scenarioPath)
	if err != nil {
		return err
	}

	book, err := lob.NewBookWithDecay(sf.DecayCoefficient, sf.AskPrices, sf.AskVolumes, sf.BidPrices, sf.BidVolumes)
	if err != nil {
		return fmt.Errorf("build initial book: %w", err)
	}

	pathInfo := sim.PathInfo{
		NDays:                   sf.NDays,
		NHours:                  sf.NHours,
		NQuarters:               sf.NQuarters,
		InitialFundamental:      sf.InitialFundamental,
		InitialBook:             book,
		HedgerOptionPosition:    sf.HedgerOptionPosition,
		HedgerImpliedVolatility: sf.HedgerImpliedVolatility,
	}
	randInfo := simrand.Info{
		Seed:           sf.Seed,
		VolNews:        sf.VolNews,
		OrderIntensity: sf.OrderIntensity,
		ProbLimit:      sf.ProbLimit,
		ProbInformed:   sf.ProbInformed,
		VolMin:         sf.VolMin,
		VolMax:         sf.VolMax,
		MeanSpread:     sf.MeanSpread,
		VolSpread:      sf.VolSpread,
		ProbSign:       sf.ProbSign,
	}

	pc := sim.NewPathCollection(sf.NPaths, pathInfo, randInfo)

	start := time.Now()
	logger.Info("batch run starting", slog.Int("n_paths", sf.NPaths), slog.Int64("seed", sf.Seed))
	if err := pc.Generate(); err != nil {
		return fmt.Errorf("generate paths: %w", err)
	}
	elapsed := time.Since(start)

	for _, idx := range pc.FindPathsWithStatus(sim.StatusFailed) {
		logger.Debug("path failed", slog.Int("path_index", idx))
	}

	m := pc.CalcLiquidityMetrics()
	logger.Info("batch run complete",
		slog.Int("n_paths", sf.NPaths),
		slog.Int64("seed", sf.Seed),
		slog.Duration("elapsed", elapsed),
	)
	v := m.Vector()
	fmt.Printf("[%.4f, %.4f, %.4f, %.4f, %.4f]\n", v[0], v[1], v[2], v[3], v[4])
	return nil
}

func runServer(cfg *config.Config, logger *slog.Logger) {
	router := httpapi.NewRouter(logger)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
