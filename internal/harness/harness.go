package harness

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/config"
	"github.com/roach88/edi997/internal/logging"
	"github.com/roach88/edi997/internal/pipeline"
	"github.com/roach88/edi997/internal/testutil"
	"github.com/roach88/edi997/internal/x12"
)

// Harness is the scenario execution engine. Every run uses a fixed clock so
// results are reproducible.
type Harness struct {
	base   config.Config
	clock  *testutil.FixedClock
	logger logrus.FieldLogger
}

// Option configures a Harness.
type Option func(*Harness)

// WithConfig sets the configuration that scenario parser overrides start from.
func WithConfig(cfg config.Config) Option {
	return func(h *Harness) { h.base = cfg }
}

// WithLogger sets the logger passed to the pipeline.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a harness using the default configuration.
func New(opts ...Option) *Harness {
	h := &Harness{
		base:  config.Default(),
		clock: testutil.NewFixedClock(testutil.DefaultTime),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.OrDiscard(h.logger)
	return h
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and returns the result.
//
// The returned error covers setup problems only: an invalid parser override,
// an unreadable input file or an invalid outbound group. Unmet expectations
// are reported through Result.Errors.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	cfg := h.base
	scenario.Parser.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	logger := h.logger.WithField("scenario", scenario.Name)
	p, err := pipeline.New(cfg, pipeline.WithClock(h.clock), pipeline.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	input, err := scenario.input()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	res, err := p.ValidateBytes(input)
	if err != nil {
		result.ErrorCode = x12.CodeOf(err)
		switch {
		case scenario.Expect.Error == "":
			result.AddError(fmt.Sprintf("validation failed: %v", err))
		case scenario.Expect.Error != result.ErrorCode:
			result.AddError(fmt.Sprintf("expected error %s, got %v", scenario.Expect.Error, err))
		}
		return result, nil
	}
	result.Validation = res

	if scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error %s, got status %s", scenario.Expect.Error, res.OverallStatus()))
		return result, nil
	}

	if scenario.Outbound != nil {
		outbound, err := scenario.Outbound.Group()
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		rec, err := p.Reconcile(res, outbound)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.Reconciliation = rec
	}

	checkExpect(scenario.Expect, result)
	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(a, result); err != nil {
			result.AddError(err.Error())
		}
	}

	logger.WithFields(logrus.Fields{
		"pass":   result.Pass,
		"errors": len(result.Errors),
	}).Debug("scenario_complete")
	return result, nil
}

func (s *Scenario) input() ([]byte, error) {
	if s.InputFile == "" {
		return []byte(s.Input), nil
	}
	data, err := os.ReadFile(s.InputFile)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}
