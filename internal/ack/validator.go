package ack

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/codes"
	"github.com/roach88/edi997/internal/logging"
	"github.com/roach88/edi997/internal/x12"
)

// Clock supplies validation timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Validator rebuilds the acknowledgment hierarchy from a parsed segment stream and
// classifies every level.
//
// A Validator holds only read-only collaborators and is safe for concurrent use;
// all per-document state lives in the scan started by Validate.
type Validator struct {
	resolver *codes.Resolver
	clock    Clock
	logger   logrus.FieldLogger
}

// Option configures a Validator.
type Option func(*Validator)

// WithResolver sets the code tables used for descriptions.
func WithResolver(r *codes.Resolver) Option {
	return func(v *Validator) { v.resolver = r }
}

// WithClock sets the timestamp source.
func WithClock(c Clock) Option {
	return func(v *Validator) { v.clock = c }
}

// WithLogger sets the logger for warnings about tolerated input.
func WithLogger(l logrus.FieldLogger) Option {
	return func(v *Validator) { v.logger = l }
}

// NewValidator creates a Validator using the embedded code tables, the system clock
// and a discarding logger unless overridden.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	if v.resolver == nil {
		v.resolver = codes.Default()
	}
	if v.clock == nil {
		v.clock = systemClock{}
	}
	v.logger = logging.OrDiscard(v.logger)
	return v
}

// Validate scans segments once and returns the verdict for the document. Any
// structural failure aborts the scan; no partial result is returned.
func (v *Validator) Validate(segments []x12.Segment) (*ValidationResult, error) {
	s := &scan{v: v}
	var state scanState = awaitingInterchange{}
	for i, seg := range segments {
		next, err := state.next(s, seg)
		if err != nil {
			v.logger.WithFields(logrus.Fields{
				"segment_index": i,
				"segment":       seg.Tag(),
			}).WithError(err).Debug("validation_aborted")
			return nil, err
		}
		state = next
	}
	if err := state.finish(s); err != nil {
		return nil, err
	}
	return s.result(), nil
}

// ClassifyTransaction classifies an AK501 code, logging unknown codes.
func (v *Validator) ClassifyTransaction(code string) Status {
	return v.classify("transaction_set", code)
}

// ClassifyGroup classifies an AK901 code, logging unknown codes.
func (v *Validator) ClassifyGroup(code string) Status {
	return v.classify("functional_group", code)
}

func (v *Validator) classify(level, code string) Status {
	status := Classify(code)
	if status == StatusUnknown {
		v.logger.WithFields(logrus.Fields{
			"level": level,
			"code":  code,
		}).Warn("unknown_ack_code")
	}
	return status
}

// buildTransaction expands one closed AK2 loop into its ErrorDetails: AK3 segment
// notes first, then AK4 element notes, then the AK5 syntax codes.
func (v *Validator) buildTransaction(txn *txnAccumulator, ak5 *x12.AK5) TransactionSetValidation {
	var errs []ErrorDetail

	for _, ak3 := range txn.ak3s {
		if ak3.SyntaxErrorCode == "" {
			continue
		}
		info := v.resolver.SegmentError(ak3.SyntaxErrorCode)
		errs = append(errs, ErrorDetail{
			SegmentID:        ak3.SegmentID,
			SegmentPosition:  intPtr(ak3.Position),
			ErrorCode:        ak3.SyntaxErrorCode,
			ErrorDescription: info.Description,
			Severity:         severityOf(info.Severity),
		})
	}

	for _, note := range txn.ak4s {
		info := v.resolver.ElementError(note.ak4.SyntaxErrorCode)
		d := ErrorDetail{
			ElementPosition:  intPtr(note.ak4.ElementPosition),
			ElementReference: note.ak4.ElementReference,
			ErrorCode:        note.ak4.SyntaxErrorCode,
			ErrorDescription: info.Description,
			Severity:         severityOf(info.Severity),
			BadData:          note.ak4.BadData,
		}
		if note.owner != nil {
			d.SegmentID = note.owner.SegmentID
			d.SegmentPosition = intPtr(note.owner.Position)
		}
		errs = append(errs, d)
	}

	syntaxCodes := ak5.ErrorCodes()
	for _, code := range syntaxCodes {
		info := v.resolver.TransactionSetError(code)
		errs = append(errs, ErrorDetail{
			ErrorCode:        code,
			ErrorDescription: info.Description,
			Severity:         severityOf(info.Severity),
		})
	}

	return NewTransactionSetValidation(
		txn.ak2.TransactionSetID,
		txn.ak2.ControlNumber,
		ak5.AckCode,
		v.ClassifyTransaction(ak5.AckCode),
		errs,
		syntaxCodes,
	)
}

func (v *Validator) buildGroup(g *groupAccumulator, ak9 *x12.AK9) FunctionalGroupValidation {
	txns := g.txns
	if txns == nil {
		txns = []TransactionSetValidation{}
	}
	return FunctionalGroupValidation{
		FunctionalIDCode:   g.ak1.FunctionalIDCode,
		GroupControlNumber: g.ak1.GroupControlNumber,
		Status:             v.ClassifyGroup(ak9.AckCode),
		AckCode:            ak9.AckCode,
		Included:           ak9.Included,
		Received:           ak9.Received,
		Accepted:           ak9.Accepted,
		Transactions:       txns,
		SyntaxErrorCodes:   ak9.ErrorCodes(),
	}
}

func intPtr(n int) *int {
	return &n
}
