package forecast

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/hashicorp/go-multierror"
)

const maxStalledGenerations = 20

type TrainerConfig struct {
	Pair           models.Pair
	ModelNo        int
	InputSize      int
	TrainingCount  int
	PopulationSize int
}

// Trainer перебирает наборы параметров признаков и регрессоры, оставляя лучший по MSE
type Trainer struct {
	cfg    TrainerConfig
	search *Search
	log    *slog.Logger
}

func NewTrainer(cfg TrainerConfig, rng *rand.Rand, log *slog.Logger) *Trainer {
	if cfg.PopulationSize < 1 {
		cfg.PopulationSize = 1
	}
	return &Trainer{
		cfg:    cfg,
		search: NewSearch(cfg.InputSize, rng),
		log:    log,
	}
}

// TrainResult итог поиска
type TrainResult struct {
	Best      *Model
	Evaluated int
	Failures  error
}

// TrainParams обучает каждый тип регрессора на одном наборе параметров.
// Ошибки отдельных регрессоров собираются, успешные модели возвращаются.
func (t *Trainer) TrainParams(params FeatureParams, train, test []models.TrainingSample) ([]*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.RequiredInputSize() > t.cfg.InputSize {
		return nil, fmt.Errorf("params need %d rates, input size is %d", params.RequiredInputSize(), t.cfg.InputSize)
	}

	x := make([][]float64, 0, len(train))
	y := make([]float64, 0, len(train))
	for _, s := range train {
		f, err := Features(s.Input, params)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", custom_err.ErrComputation, err)
		}
		x = append(x, f)
		y = append(y, s.Truth-s.Input[len(s.Input)-1])
	}

	var result *multierror.Error
	var trained []*Model
	for _, modelType := range AllModelTypes() {
		reg, err := NewRegressor(modelType)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if err := reg.Fit(x, y); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w: %v", modelType, custom_err.ErrComputation, err))
			continue
		}
		model := &Model{
			Pair:      t.cfg.Pair,
			No:        t.cfg.ModelNo,
			InputSize: t.cfg.InputSize,
			Params:    params,
			Regressor: reg,
		}
		if err := model.Evaluate(test); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", modelType, err))
			continue
		}
		trained = append(trained, model)
	}
	return trained, result.ErrorOrNil()
}

// Run генетический поиск. seed (параметры текущей модели) проверяется первым.
// Останавливается после TrainingCount наборов параметров или отмены ctx.
func (t *Trainer) Run(ctx context.Context, seed *FeatureParams, train, test []models.TrainingSample) (*TrainResult, error) {
	const op = "forecast.Trainer.Run"

	if len(train) == 0 || len(test) == 0 {
		return nil, fmt.Errorf("%s: %w: train=%d test=%d", op, custom_err.ErrInsufficientData, len(train), len(test))
	}

	res := &TrainResult{}
	var failures *multierror.Error
	evaluated := map[string]bool{}

	generation := make([]FeatureParams, 0, t.cfg.PopulationSize)
	if seed != nil {
		generation = append(generation, *seed)
	}
	for len(generation) < t.cfg.PopulationSize {
		generation = append(generation, t.search.RandomParams())
	}

	// пространство параметров мало при маленьком InputSize, новые наборы могут закончиться
	stalled := 0
	for res.Evaluated < t.cfg.TrainingCount && stalled < maxStalledGenerations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		before := res.Evaluated
		population := make([]Candidate, 0, len(generation))
		for _, params := range generation {
			if res.Evaluated >= t.cfg.TrainingCount {
				break
			}
			hash := params.Hash()
			if evaluated[hash] {
				continue
			}
			evaluated[hash] = true
			res.Evaluated++

			trained, err := t.TrainParams(params, train, test)
			if err != nil {
				t.log.Debug("candidate training failed", slog.String("op", op),
					slog.String("params_hash", hash), slog.String("error", err.Error()))
				failures = multierror.Append(failures, err)
			}

			score := math.Inf(1)
			for _, m := range trained {
				if m.MSE < score {
					score = m.MSE
				}
				if res.Best == nil || m.MSE < res.Best.MSE {
					res.Best = m
				}
			}
			if !math.IsInf(score, 1) {
				population = append(population, Candidate{Params: params, Score: score})
			}
		}

		if res.Evaluated == before {
			stalled++
		} else {
			stalled = 0
		}

		next := t.search.NextGeneration(population, t.cfg.PopulationSize)
		fresh := false
		for _, p := range next {
			if !evaluated[p.Hash()] {
				fresh = true
				break
			}
		}
		if !fresh {
			next = append(next, t.search.RandomParams())
		}
		generation = next
	}

	res.Failures = failures.ErrorOrNil()
	if res.Best == nil {
		return res, fmt.Errorf("%s: %w: no candidate trained", op, custom_err.ErrComputation)
	}
	return res, nil
}
