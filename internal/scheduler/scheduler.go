package scheduler

import (
	"bin-option/internal/db"
	"bin-option/internal/metrics"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job один запуск батча
type Job func(ctx context.Context) error

// Scheduler запускает Job по cron-расписанию. Пока предыдущий запуск не завершился,
// новые тики пропускаются; между процессами то же гарантирует advisory lock.
type Scheduler struct {
	name     string
	schedule string
	job      Job
	locker   db.Locker
	recorder metrics.Recorder
	log      *slog.Logger

	running atomic.Bool
	now     func() time.Time
}

func New(name, schedule string, job Job, locker db.Locker, recorder metrics.Recorder, log *slog.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		schedule: strings.TrimSpace(schedule),
		job:      job,
		locker:   locker,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// Parse секунды необязательны: "*/10 * * * * *" и "0 3 * * *" оба валидны
func Parse(expr string) (cron.Schedule, error) {
	return parser().Parse(expr)
}

func parser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Run блокируется до отмены ctx. Пустое расписание означает один запуск.
func (s *Scheduler) Run(ctx context.Context) error {
	const op = "scheduler.Run"

	if s.schedule == "" {
		s.log.Info("расписание не задано, однократный запуск", slog.String("op", op), slog.String("batch", s.name))
		return s.RunOnce(ctx)
	}

	schedule, err := Parse(s.schedule)
	if err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, s.schedule, err)
	}

	c := cron.New(
		cron.WithChain(cron.Recover(cronLogger{log: s.log})),
		cron.WithLocation(time.UTC),
	)
	c.Schedule(schedule, cron.FuncJob(func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("запуск батча завершился с ошибкой",
				slog.String("op", op),
				slog.String("batch", s.name),
				slog.String("error", err.Error()))
		}
	}))

	s.log.Info("планировщик запущен",
		slog.String("op", op),
		slog.String("batch", s.name),
		slog.String("schedule", s.schedule))
	c.Start()

	<-ctx.Done()

	s.log.Info("остановка планировщика, ожидание текущего запуска", slog.String("op", op), slog.String("batch", s.name))
	<-c.Stop().Done()
	return nil
}

// RunOnce выполняет батч, если он не занят ни в этом процессе, ни в другом
func (s *Scheduler) RunOnce(ctx context.Context) error {
	const op = "scheduler.RunOnce"

	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("предыдущий запуск еще выполняется, тик пропущен", slog.String("op", op), slog.String("batch", s.name))
		s.recorder.RecordBatchRun(s.name, metrics.StatusSkipped, 0)
		return nil
	}
	defer s.running.Store(false)

	if s.locker != nil {
		unlock, acquired, err := s.locker.TryLock(ctx, s.name)
		if err != nil {
			s.recorder.RecordBatchRun(s.name, metrics.StatusFailed, 0)
			return fmt.Errorf("%s: %w", op, err)
		}
		if !acquired {
			s.log.Warn("батч выполняется другим процессом, тик пропущен", slog.String("op", op), slog.String("batch", s.name))
			s.recorder.RecordBatchRun(s.name, metrics.StatusSkipped, 0)
			return nil
		}
		defer unlock()
	}

	start := s.now()
	err := s.job(ctx)
	elapsed := s.now().Sub(start)

	if err != nil {
		s.recorder.RecordBatchRun(s.name, metrics.StatusFailed, elapsed)
		return fmt.Errorf("%s: %s: %w", op, s.name, err)
	}

	s.recorder.RecordBatchRun(s.name, metrics.StatusSuccess, elapsed)
	s.log.Info("батч выполнен",
		slog.String("op", op),
		slog.String("batch", s.name),
		slog.Duration("elapsed", elapsed))
	return nil
}

// cronLogger адаптер cron.Logger поверх slog
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
