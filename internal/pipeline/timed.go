package pipeline

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/logging"
)

// Timed runs fn and logs its elapsed time at debug level under op. Stages do not
// instrument themselves; the pipeline wraps each one with Timed.
func Timed[T any](logger logrus.FieldLogger, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	out, err := fn()
	entry := logging.OrDiscard(logger).WithFields(logrus.Fields{
		"operation":  op,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Debug("operation_failed")
	} else {
		entry.Debug("operation_complete")
	}
	return out, err
}
