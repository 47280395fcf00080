package app

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/fantasy-autopick/internal/config"
	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
	"github.com/riskibarqy/fantasy-autopick/internal/interfaces/httpapi"
	"github.com/riskibarqy/fantasy-autopick/internal/optimizer"
	"github.com/riskibarqy/fantasy-autopick/internal/platform/logging"
	"github.com/riskibarqy/fantasy-autopick/internal/usecase"
)

// Services groups the usecases shared by the HTTP API and the CLI.
type Services struct {
	Selection  *usecase.SelectionService
	Evaluation *usecase.EvaluationService
	Backtest   *usecase.BacktestService
}

// NewSelector builds the exact-then-greedy selector. With the solver
// disabled every call goes straight to the greedy strategy.
func NewSelector(cfg config.Config, logger *logging.Logger) *optimizer.Selector {
	var (
		exact   optimizer.Strategy
		breaker *optimizer.Breaker
	)
	if cfg.SolverEnabled {
		exact = optimizer.NewExactStrategy(optimizer.NewBranchAndBound(cfg.SolverNodeLimit), cfg.SolverBenchWeight)
		if cfg.SolverCircuitEnabled {
			breaker = optimizer.NewBreaker(cfg.SolverCircuitFailureCount, cfg.SolverCircuitOpenTimeout, logger.Named("optimizer"))
		}
	}

	return optimizer.NewSelector(exact, optimizer.NewGreedy(), breaker, optimizer.SelectorConfig{
		SolveTimeout: cfg.SolverTimeout,
		Joint:        cfg.SolverJoint,
	}, logger.Named("optimizer"))
}

func NewServices(cfg config.Config, repo selection.Repository, logger *logging.Logger) Services {
	policy := usecase.AvailabilityPolicy{
		MinChanceOfPlaying: cfg.AvailabilityMinChance,
		ExcludedStatuses:   cfg.AvailabilityExcludedStatus,
	}

	selectionSvc := usecase.NewSelectionService(NewSelector(cfg, logger), repo, cfg.Rules, policy, logger)
	return Services{
		Selection:  selectionSvc,
		Evaluation: usecase.NewEvaluationService(repo, logger),
		Backtest:   usecase.NewBacktestService(selectionSvc, cfg.BacktestWorkers, logger),
	}
}

// NewHTTPServer wires storage, usecases and the router. The returned close
// function releases the storage connection after the server stops.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	repo, closeRepo, err := NewSelectionRepository(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	services := NewServices(cfg, repo, logger)
	handler := httpapi.NewHandler(services.Selection, services.Evaluation, services.Backtest, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return server, closeRepo, nil
}
