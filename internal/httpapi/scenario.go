// Package httpapi is the optional results server spec.md §1 calls out as
// an external collaborator ("thin glue") rather than core: it lets an
// operator submit a scenario over HTTP and get back the metric vector,
// without a CLI round trip.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/efreitasn/microhedger/internal/domain"
	"github.com/efreitasn/microhedger/internal/lob"
	"github.com/efreitasn/microhedger/internal/sim"
	"github.com/efreitasn/microhedger/internal/simrand"
	"github.com/google/uuid"
)

// ScenarioHandler serves scenario-run requests.
type ScenarioHandler struct {
	logger *slog.Logger
}

// NewScenarioHandler constructs a ScenarioHandler.
func NewScenarioHandler(logger *slog.Logger) *ScenarioHandler {
	return &ScenarioHandler{logger: logger}
}

// bookSideRequest is one side of a scenario's starting book, as
// parallel price/volume arrays.
type bookSideRequest struct {
	Prices  []float64 `json:"prices"`
	Volumes []float64 `json:"volumes"`
}

// scenarioRequest is the JSON body of POST /scenarios/run.
type scenarioRequest struct {
	NPaths                  int             `json:"n_paths"`
	NDays                   int             `json:"n_days"`
	NHours                  int             `json:"n_hours"`
	NQuarters               int             `json:"n_quarters"`
	InitialFundamental      float64         `json:"initial_fundamental"`
	DecayCoefficient        float64         `json:"decay_coefficient"`
	Asks                    bookSideRequest `json:"asks"`
	Bids                    bookSideRequest `json:"bids"`
	HedgerOptionPosition    float64         `json:"hedger_option_position"`
	HedgerImpliedVolatility float64         `json:"hedger_implied_volatility"`
	Seed                    int64           `json:"seed"`
	VolNews                 float64         `json:"vol_news"`
	OrderIntensity          float64         `json:"order_intensity"`
	ProbLimit               float64         `json:"prob_limit"`
	ProbInformed            float64         `json:"prob_informed"`
	VolMin                  float64         `json:"vol_min"`
	VolMax                  float64         `json:"vol_max"`
	MeanSpread              float64         `json:"mean_spread"`
	VolSpread               float64         `json:"vol_spread"`
	ProbSign                float64         `json:"prob_sign"`
}

// scenarioResponse is the JSON body returned by POST /scenarios/run.
type scenarioResponse struct {
	RunID          string  `json:"run_id"`
	FailureRate    float64 `json:"failure_rate"`
	Vol1           float64 `json:"vol1"`
	Vol2           float64 `json:"vol2"`
	Liquidity1     float64 `json:"liquidity1"`
	PriceDiscovery float64 `json:"price_discovery"`
}

// Run handles POST /scenarios/run: it builds a PathCollection from the
// request body, runs it to completion, and returns the five-element
// metric vector tagged with a run ID for log correlation.
func (h *ScenarioHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req scenarioRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	book, err := lob.NewBookWithDecay(req.DecayCoefficient,
		req.Asks.Prices, req.Asks.Volumes, req.Bids.Prices, req.Bids.Volumes)
	if err != nil {
		mapScenarioError(w, err)
		return
	}

	pathInfo := sim.PathInfo{
		NDays:                   req.NDays,
		NHours:                  req.NHours,
		NQuarters:               req.NQuarters,
		InitialFundamental:      req.InitialFundamental,
		InitialBook:             book,
		HedgerOptionPosition:    req.HedgerOptionPosition,
		HedgerImpliedVolatility: req.HedgerImpliedVolatility,
	}
	randInfo := simrand.Info{
		Seed:           req.Seed,
		VolNews:        req.VolNews,
		OrderIntensity: req.OrderIntensity,
		ProbLimit:      req.ProbLimit,
		ProbInformed:   req.ProbInformed,
		VolMin:         req.VolMin,
		VolMax:         req.VolMax,
		MeanSpread:     req.MeanSpread,
		VolSpread:      req.VolSpread,
		ProbSign:       req.ProbSign,
	}

	runID := uuid.New().String()
	pc := sim.NewPathCollection(req.NPaths, pathInfo, randInfo)

	h.logger.Info("scenario run starting",
		slog.String("run_id", runID),
		slog.Int("n_paths", req.NPaths),
	)
	if err := pc.Generate(); err != nil {
		h.logger.Error("scenario run failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		mapScenarioError(w, err)
		return
	}

	m := pc.CalcLiquidityMetrics()
	h.logger.Info("scenario run complete",
		slog.String("run_id", runID),
		slog.Float64("failure_rate", m.FailureRate),
	)

	writeJSON(w, http.StatusOK, scenarioResponse{
		RunID:          runID,
		FailureRate:    m.FailureRate,
		Vol1:           m.Vol1,
		Vol2:           m.Vol2,
		Liquidity1:     m.Liquidity1,
		PriceDiscovery: m.PriceDiscovery,
	})
}

// mapScenarioError maps the domain error taxonomy (spec.md §7) onto HTTP
// status codes.
func mapScenarioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrIllegalState):
		writeError(w, http.StatusConflict, "illegal_state", err.Error())
	case errors.Is(err, domain.ErrUnsupported):
		writeError(w, http.StatusUnprocessableEntity, "unsupported", err.Error())
	case errors.Is(err, domain.ErrLiquidityCrisis):
		writeError(w, http.StatusUnprocessableEntity, "liquidity_crisis", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
