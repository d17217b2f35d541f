package schedule

import (
	"context"
	"fmt"

	"github.com/avalab/restcore/pkg/config"
	"github.com/avalab/restcore/pkg/logger"
)

// Job is a unit of work executed on a schedule. Implementations should
// respect context cancellation for graceful shutdown.
type Job func(ctx context.Context) error

// Trigger is the external cron/trigger scheduler boundary. The registrar
// delegates entirely to it; there is no scheduling logic in this package.
type Trigger interface {
	// Daily registers job to run every day at the given wall-clock time.
	Daily(name string, at TimeOfDay, job Job) error
}

// Registrar looks schedule specs up by configuration key and registers one
// daily trigger per parsed time.
type Registrar struct {
	cfg  *config.Config
	trig Trigger
	log  logger.Logger
}

// NewRegistrar creates a Registrar bound to a config source and a trigger
// scheduler.
func NewRegistrar(cfg *config.Config, trig Trigger, log logger.Logger) *Registrar {
	if log == nil {
		log = logger.Nop()
	}
	return &Registrar{cfg: cfg, trig: trig, log: log}
}

// Register reads the spec under key and registers job once per parsed time.
// A disabled spec ("-" or unset) registers nothing and is not an error.
// It returns the number of triggers registered.
func (r *Registrar) Register(key, name string, job Job) (int, error) {
	spec := r.cfg.GetString(key)
	if IsDisabled(spec) {
		r.log.Infof("job %s disabled (key %s)", name, key)
		return 0, nil
	}

	times, err := Parse(spec)
	if err != nil {
		return 0, fmt.Errorf("job %s: %w", name, err)
	}

	for _, at := range times {
		if err := r.trig.Daily(name, at, job); err != nil {
			return 0, fmt.Errorf("job %s at %s: %w", name, at, err)
		}
		r.log.Infof("job %s scheduled daily at %s", name, at)
	}
	return len(times), nil
}
