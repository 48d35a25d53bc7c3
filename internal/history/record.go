package history

import (
	"github.com/hochfrequenz/workflow-results/internal/logging"
	"go.uber.org/zap"
)

// Record saves run into the ledger at dbPath. An empty path disables the
// ledger. Failures are logged and swallowed: history never decides a
// tool's exit code.
func Record(dbPath string, run *Run, logger *zap.Logger) {
	if dbPath == "" || run == nil {
		return
	}
	logger = logging.OrNop(logger)

	store, err := New(dbPath)
	if err != nil {
		logger.Warn("opening history database", zap.String("path", dbPath), zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.SaveRun(run); err != nil {
		logger.Warn("recording run", zap.String("tool", run.Tool), zap.Error(err))
		return
	}
	logger.Debug("recorded run", zap.String("id", run.ID), zap.String("tool", run.Tool), zap.Bool("success", run.Success))
}
