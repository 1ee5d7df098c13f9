package testrun

import (
	"log/slog"

	"github.com/benchline-ai/benchline-go/internal/logging"
	"github.com/benchline-ai/benchline-go/pkg/api"
)

// ProcessedEntry is handed to the logger's Processed callback after a row
// has been pushed.
type ProcessedEntry struct {
	RowIndex          int
	Row               Row
	Output            string
	EvaluationResults []api.EvaluationResult
}

// Logger is the user-pluggable logger for a test run. Info receives general
// progress messages, Error receives recovered row failures, Processed fires
// once per successfully pushed row.
type Logger interface {
	Info(message string)
	Error(message string)
	Processed(message string, entry *ProcessedEntry)
}

type slogRunLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger to the run Logger interface.
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogRunLogger{logger: logger}
}

func defaultLogger() Logger {
	return NewSlogLogger(logging.FallbackLogger())
}

func (l *slogRunLogger) Info(message string) {
	l.logger.Info(message)
}

func (l *slogRunLogger) Error(message string) {
	l.logger.Error(message)
}

func (l *slogRunLogger) Processed(message string, entry *ProcessedEntry) {
	l.logger.Info(message, "row_index", entry.RowIndex, "output", entry.Output, "evaluation_results", len(entry.EvaluationResults))
}
