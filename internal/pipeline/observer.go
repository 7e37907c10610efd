package pipeline

import (
	"log/slog"
)

// Observer is notified as stages run. Implementations must not block.
type Observer interface {
	StageStarted(runID, stage string, index, total int)
	StageFinished(runID string, result StageResult)
	StageFailed(runID, stage string, err error)
}

func (p *Pipeline) notifyStarted(runID, stage string, index, total int) {
	for _, o := range p.observers {
		o.StageStarted(runID, stage, index, total)
	}
}

func (p *Pipeline) notifyFinished(runID string, result StageResult) {
	for _, o := range p.observers {
		o.StageFinished(runID, result)
	}
}

func (p *Pipeline) notifyFailed(runID, stage string, err error) {
	for _, o := range p.observers {
		o.StageFailed(runID, stage, err)
	}
}

type logObserver struct {
	logger *slog.Logger
}

// LogObserver logs stage progress with structured fields
func LogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logObserver{logger: logger}
}

func (l *logObserver) StageStarted(runID, stage string, index, total int) {
	l.logger.Debug("stage started", "run_id", runID, "stage", stage, "index", index+1, "total", total)
}

func (l *logObserver) StageFinished(runID string, r StageResult) {
	attrs := []any{
		"run_id", runID,
		"stage", r.Stage,
		"verdict", string(r.Verdict),
		"terminal", r.Terminal,
		"duration", r.Duration,
	}
	if r.Fallback {
		attrs = append(attrs, "fallback", true, "token", r.Token)
		l.logger.Warn("stage finished with fallback verdict", attrs...)
		return
	}
	l.logger.Info("stage finished", attrs...)
}

func (l *logObserver) StageFailed(runID, stage string, err error) {
	l.logger.Error("stage failed", "run_id", runID, "stage", stage, "error", err)
}
