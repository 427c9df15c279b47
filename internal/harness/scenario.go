package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/edi997/internal/ack"
	"github.com/roach88/edi997/internal/config"
	"github.com/roach88/edi997/internal/reconcile"
	"github.com/roach88/edi997/internal/x12"
)

// Scenario defines a conformance test scenario: one 997 input, an optional
// outbound group to reconcile it against, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Parser overrides the default parser configuration.
	Parser *ParserOverrides `yaml:"parser,omitempty"`

	// Input is the raw interchange. Mutually exclusive with InputFile.
	Input string `yaml:"input,omitempty"`

	// InputFile is read instead of Input. LoadScenario resolves it relative
	// to the scenario file.
	InputFile string `yaml:"input_file,omitempty"`

	// Outbound, when set, is reconciled against the validation result.
	Outbound *OutboundSpec `yaml:"outbound,omitempty"`

	Expect Expect `yaml:"expect"`

	// Assertions are checked after Expect.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ParserOverrides replaces individual parser settings. Nil fields keep the
// default.
type ParserOverrides struct {
	AutoDetectDelimiters *bool                    `yaml:"auto_detect_delimiters,omitempty"`
	FallbackToDefaults   *bool                    `yaml:"fallback_to_defaults,omitempty"`
	DefaultDelimiters    *config.DelimitersConfig `yaml:"default_delimiters,omitempty"`
	PreserveLineBreaks   *bool                    `yaml:"preserve_line_breaks,omitempty"`
	AllowUnknownSegments *bool                    `yaml:"allow_unknown_segments,omitempty"`
}

// apply writes the overrides into cfg.
func (o *ParserOverrides) apply(cfg *config.Config) {
	if o == nil {
		return
	}
	p := &cfg.Parser
	if o.AutoDetectDelimiters != nil {
		p.AutoDetectDelimiters = *o.AutoDetectDelimiters
	}
	if o.FallbackToDefaults != nil {
		p.FallbackToDefaults = *o.FallbackToDefaults
	}
	if o.DefaultDelimiters != nil {
		p.DefaultDelimiters = *o.DefaultDelimiters
	}
	if o.PreserveLineBreaks != nil {
		p.PreserveLineBreaks = *o.PreserveLineBreaks
	}
	if o.AllowUnknownSegments != nil {
		p.AllowUnknownSegments = *o.AllowUnknownSegments
	}
}

// OutboundSpec is the sent side of a reconciliation. Group-level fields are
// copied onto every transaction.
type OutboundSpec struct {
	FunctionalIDCode   string            `yaml:"functional_id_code"`
	GroupControlNumber string            `yaml:"group_control_number"`
	Transactions       []OutboundTxnSpec `yaml:"transactions"`
}

// OutboundTxnSpec is one sent transaction set.
type OutboundTxnSpec struct {
	SetID         string `yaml:"set_id"`
	ControlNumber string `yaml:"control_number"`
}

// Group converts the scenario's outbound section into a validated group.
func (o *OutboundSpec) Group() (reconcile.OutboundFunctionalGroup, error) {
	g := reconcile.OutboundFunctionalGroup{
		FunctionalIDCode:   o.FunctionalIDCode,
		GroupControlNumber: o.GroupControlNumber,
		Transactions:       make([]reconcile.OutboundTransaction, 0, len(o.Transactions)),
	}
	for _, tx := range o.Transactions {
		g.Transactions = append(g.Transactions, reconcile.OutboundTransaction{
			TransactionSetID:   tx.SetID,
			ControlNumber:      tx.ControlNumber,
			GroupControlNumber: o.GroupControlNumber,
			FunctionalIDCode:   o.FunctionalIDCode,
		})
	}
	if err := g.Validate(); err != nil {
		return reconcile.OutboundFunctionalGroup{}, err
	}
	return g, nil
}

// Expect holds the top-level expectations. Nil fields are not checked.
type Expect struct {
	// Error is the X12 error code validation must fail with.
	Error x12.ErrorCode `yaml:"error,omitempty"`

	Status          ack.Status `yaml:"status,omitempty"`
	IsValid         *bool      `yaml:"is_valid,omitempty"`
	Included        *int       `yaml:"included,omitempty"`
	Accepted        *int       `yaml:"accepted,omitempty"`
	TotalErrors     *int       `yaml:"total_errors,omitempty"`
	FullyReconciled *bool      `yaml:"fully_reconciled,omitempty"`
}

// Assertion is a single check on the result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	ControlNumber string `yaml:"control_number,omitempty"`

	// Status is an ack.Status for transaction_status and a reconcile.Status
	// for reconciliation_status.
	Status string `yaml:"status,omitempty"`

	// Codes lists error codes in order for transaction_errors.
	Codes []string `yaml:"codes,omitempty"`

	// Count is used by group_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertTransactionStatus    = "transaction_status"
	AssertTransactionErrors    = "transaction_errors"
	AssertReconciliationStatus = "reconciliation_status"
	AssertGroupCount           = "group_count"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.InputFile != "" && !filepath.IsAbs(s.InputFile) {
		s.InputFile = filepath.Join(filepath.Dir(path), s.InputFile)
	}
	return s, nil
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so typos
// such as "assertion:" fail loudly.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", path, s.Name, prev)
		}
		names[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input != "" && s.InputFile != "" {
		return fmt.Errorf("input and input_file are mutually exclusive")
	}

	if s.Expect.Error != "" {
		if s.Outbound != nil || len(s.Assertions) > 0 {
			return fmt.Errorf("expect.error cannot be combined with outbound or assertions")
		}
	} else if s.Expect.Status == "" {
		return fmt.Errorf("expect.status or expect.error is required")
	}

	if s.Expect.FullyReconciled != nil && s.Outbound == nil {
		return fmt.Errorf("expect.fully_reconciled requires outbound")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Outbound != nil); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, hasOutbound bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTransactionStatus:
		if a.ControlNumber == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: control_number and status are required for transaction_status", index)
		}
	case AssertTransactionErrors:
		if a.ControlNumber == "" {
			return fmt.Errorf("assertions[%d]: control_number is required for transaction_errors", index)
		}
	case AssertReconciliationStatus:
		if a.ControlNumber == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: control_number and status are required for reconciliation_status", index)
		}
		if !hasOutbound {
			return fmt.Errorf("assertions[%d]: reconciliation_status requires outbound", index)
		}
	case AssertGroupCount:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for group_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
