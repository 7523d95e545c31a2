package scheduler

import (
	"context"
	"time"

	obscontext "github.com/montessori/ecole/internal/observability/context"
	obslogger "github.com/montessori/ecole/internal/observability/logger"
	obsmetrics "github.com/montessori/ecole/internal/observability/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// jobRun accumulates the outcome of one job execution. It travels in the
// context so nested calls report into the run that started them.
type jobRun struct {
	job       string
	id        string
	started   time.Time
	processed int
	failures  int
}

type jobRunKey struct{}

func (r *jobRun) AddProcessed(n int) {
	if r != nil && n > 0 {
		r.processed += n
	}
}

func (r *jobRun) IncError() {
	if r != nil {
		r.failures++
	}
}

func (r *jobRun) fields() []zap.Field {
	return []zap.Field{zap.String("job", r.job), zap.String("run_id", r.id)}
}

// beginRun attaches a run to ctx unless one is already there. owner reports
// whether the caller created it and must call endRun.
func (s *Scheduler) beginRun(ctx context.Context, job string) (context.Context, *jobRun, bool) {
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok {
		return ctx, run, false
	}
	run := &jobRun{job: job, id: s.genID.Generate().String(), started: time.Now()}
	ctx = obscontext.WithActor(context.WithValue(ctx, jobRunKey{}, run), "system", "scheduler")
	s.logger(ctx).Debug("scheduler.job.start", run.fields()...)
	return ctx, run, true
}

func (s *Scheduler) endRun(ctx context.Context, run *jobRun) {
	level := zapcore.DebugLevel
	if run.failures > 0 {
		level = zapcore.WarnLevel
	}
	fields := append(run.fields(),
		zap.Int64("duration_ms", time.Since(run.started).Milliseconds()),
		zap.Int("processed_count", run.processed),
		zap.Int("error_count", run.failures),
	)
	if ce := s.logger(ctx).Check(level, "scheduler.job.finish"); ce != nil {
		ce.Write(fields...)
	}
}

func (s *Scheduler) failRun(ctx context.Context, run *jobRun, msg string, err error, extra ...zap.Field) {
	if err == nil {
		return
	}
	run.IncError()
	fields := []zap.Field{
		zap.String("error_type", obsmetrics.ClassifySchedulerJobReason(err)),
		zap.Error(err),
	}
	if run != nil {
		fields = append(fields, run.fields()...)
	}
	s.logger(ctx).Error(msg, append(fields, extra...)...)
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}
