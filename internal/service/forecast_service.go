package service

import (
	"bin-option/internal/config"
	"bin-option/internal/custom_err"
	"bin-option/internal/forecast"
	"bin-option/internal/models"
	"bin-option/internal/storage/postgres"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Forecasts interface {
	GetForecast(ctx context.Context, rateID uuid.UUID, modelNo int) (models.ForecastOutcome, error)
	Shutdown(ctx context.Context) error
}

type forecastJob struct {
	history *models.RateHistory
	model   *forecast.Model
}

func (j forecastJob) key() string {
	return fmt.Sprintf("%s/%d", j.history.ID, j.model.No)
}

// ForecastService GET /forecast: отдает сохраненный результат или запускает расчет.
// В async режиме расчет уходит в пул воркеров, в sync выполняется в запросе с таймаутом.
type ForecastService struct {
	historyRepo postgres.HistoryRepository
	forecaster  *Forecaster

	mode    string
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger

	jobs     chan forecastJob
	inflight map[string]struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewForecastService(
	historyRepo postgres.HistoryRepository,
	forecaster *Forecaster,
	cfg config.ForecastConfig,
	log *slog.Logger,
) *ForecastService {
	svc := &ForecastService{
		historyRepo: historyRepo,
		forecaster:  forecaster,
		mode:        cfg.Mode,
		timeout:     cfg.Timeout,
		now:         time.Now,
		log:         log,
		jobs:        make(chan forecastJob, cfg.QueueSize),
		inflight:    make(map[string]struct{}),
		stopCh:      make(chan struct{}),
	}

	if svc.mode == config.ForecastModeAsync {
		for i := 0; i < cfg.Workers; i++ {
			svc.wg.Add(1)
			go svc.forecastWorker(i)
		}
	}

	return svc
}

func (s *ForecastService) forecastWorker(id int) {
	defer s.wg.Done()
	s.log.Info("forecast worker started", slog.Int("worker_id", id))

	for {
		select {
		case job := <-s.jobs:
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			if _, err := s.run(ctx, job); err != nil && !errors.Is(err, custom_err.ErrForecastFailed) {
				s.log.Error("forecast job failed",
					slog.Int("worker_id", id),
					slog.String("rate_id", job.history.ID.String()),
					slog.Int("model_no", job.model.No),
					slog.String("error", err.Error()))
			}
			cancel()
			s.release(job)

		case <-s.stopCh:
			s.log.Info("forecast worker stopping", slog.Int("worker_id", id))
			return
		}
	}
}

func (s *ForecastService) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down forecast service")

	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("all forecast workers stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("shutdown timeout exceeded")
		return ctx.Err()
	}
}

func (s *ForecastService) GetForecast(ctx context.Context, rateID uuid.UUID, modelNo int) (models.ForecastOutcome, error) {
	const op = "service.GetForecast"

	history, err := s.historyRepo.GetActive(ctx, rateID, s.now().UTC())
	if err != nil {
		if errors.Is(err, custom_err.ErrHistoryNotFound) {
			return models.ForecastOutcome{}, err
		}
		return models.ForecastOutcome{}, fmt.Errorf("%s: %w: %v", op, custom_err.ErrPersistence, err)
	}

	model, err := s.forecaster.LoadModel(ctx, history.Pair, modelNo)
	if err != nil {
		return models.ForecastOutcome{}, err
	}

	result, forecastErr, err := s.forecaster.Stored(ctx, rateID, modelNo)
	if err != nil {
		return models.ForecastOutcome{}, err
	}
	if result != nil {
		return models.CompleteOutcome(*result), nil
	}
	if forecastErr != nil {
		return models.ForecastOutcome{}, &custom_err.FailureError{Summary: forecastErr.Summary}
	}

	job := forecastJob{history: history, model: model}
	if s.mode == config.ForecastModeSync {
		return s.runSync(ctx, job)
	}

	s.dispatch(job)
	return models.PendingOutcome(), nil
}

func (s *ForecastService) runSync(ctx context.Context, job forecastJob) (models.ForecastOutcome, error) {
	const op = "service.runSync"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		result *models.ForecastResult
		err    error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		result, err := s.run(ctx, job)
		resultCh <- outcome{result, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return models.ForecastOutcome{}, res.err
		}
		return models.CompleteOutcome(*res.result), nil
	case <-ctx.Done():
		s.log.Warn("forecast timed out",
			slog.String("op", op),
			slog.String("rate_id", job.history.ID.String()),
			slog.Duration("timeout", s.timeout))
		return models.ForecastOutcome{}, fmt.Errorf("%s: %w", op, custom_err.ErrTimeout)
	}
}

// run паника внутри расчета не роняет воркер и не оставляет запрос без ответа
func (s *ForecastService) run(ctx context.Context, job forecastJob) (result *models.ForecastResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("forecast panic recovered",
				slog.String("rate_id", job.history.ID.String()),
				slog.Int("model_no", job.model.No),
				slog.Any("panic", r))
			result, err = nil, fmt.Errorf("%w: panic: %v", custom_err.ErrComputation, r)
		}
	}()
	return s.forecaster.Run(ctx, job.history, job.model)
}

// dispatch повторный опрос того же прогноза не ставит вторую задачу, пока первая не завершилась
func (s *ForecastService) dispatch(job forecastJob) {
	key := job.key()

	s.mu.Lock()
	if _, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		return
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.log.Debug("задача прогноза добавлена в очередь", slog.String("job", key))
	default:
		s.release(job)
		s.log.Warn("очередь прогнозов переполнена, задача отброшена", slog.String("job", key))
	}
}

func (s *ForecastService) release(job forecastJob) {
	s.mu.Lock()
	delete(s.inflight, job.key())
	s.mu.Unlock()
}
