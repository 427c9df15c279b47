package ack

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/roach88/edi997/internal/x12"
)

// scan holds the per-document accumulators of one Validate call.
type scan struct {
	v      *Validator
	isa    *x12.ISA
	groups []FunctionalGroupValidation
}

func (s *scan) result() *ValidationResult {
	valid := true
	for _, g := range s.groups {
		if g.Status != StatusAccepted {
			valid = false
		}
	}
	return &ValidationResult{
		InterchangeControlNumber: s.isa.ControlNumber,
		SenderID:                 s.isa.SenderID,
		ReceiverID:               s.isa.ReceiverID,
		FunctionalGroup:          s.groups[0],
		FunctionalGroups:         s.groups,
		Timestamp:                s.v.clock.Now(),
		IsValid:                  valid,
	}
}

// groupAccumulator collects one AK1 loop until its AK9.
type groupAccumulator struct {
	ak1  *x12.AK1
	txns []TransactionSetValidation
}

// txnAccumulator collects one AK2 loop until its AK5.
type txnAccumulator struct {
	ak2  *x12.AK2
	ak3s []*x12.AK3
	ak4s []elementNote
}

// elementNote is an AK4 with the AK3 that preceded it in the loop, if any. The
// standard has no linking field; the most recent AK3 owns the AK4.
type elementNote struct {
	ak4   *x12.AK4
	owner *x12.AK3
}

func (t *txnAccumulator) lastAK3() *x12.AK3 {
	if len(t.ak3s) == 0 {
		return nil
	}
	return t.ak3s[len(t.ak3s)-1]
}

// scanState is one state of the loop reconstruction. The implementations are
// closed: awaitingInterchange, awaitingGroup, inGroup and inTransaction.
type scanState interface {
	next(s *scan, seg x12.Segment) (scanState, error)
	finish(s *scan) error
}

// awaitingInterchange: nothing seen yet.
type awaitingInterchange struct{}

// awaitingGroup: ISA seen, no functional group response open.
type awaitingGroup struct{}

// inGroup: AK1 open, no transaction response open.
type inGroup struct {
	group *groupAccumulator
}

// inTransaction: AK1 open with at least one AK2 awaiting its AK5. pending holds
// earlier AK2 loops that were interrupted by a new AK2; they close on the same AK5
// as current.
type inTransaction struct {
	group   *groupAccumulator
	current *txnAccumulator
	pending []*txnAccumulator
}

func (awaitingInterchange) next(s *scan, seg x12.Segment) (scanState, error) {
	switch seg := seg.(type) {
	case *x12.ISA:
		s.isa = seg
		return awaitingGroup{}, nil
	case *x12.Unknown:
		s.skipUnknown(seg)
		return awaitingInterchange{}, nil
	default:
		return nil, x12.NewMissingSegmentError(x12.TagISA, fmt.Sprintf("%s appears before the interchange header", seg.Tag()))
	}
}

func (awaitingInterchange) finish(*scan) error {
	return x12.NewMissingSegmentError(x12.TagISA, "no interchange header found")
}

func (st awaitingGroup) next(s *scan, seg x12.Segment) (scanState, error) {
	switch seg := seg.(type) {
	case *x12.AK1:
		return inGroup{group: &groupAccumulator{ak1: seg}}, nil
	case *x12.AK2, *x12.AK3, *x12.AK4, *x12.AK5, *x12.AK9:
		return nil, x12.NewMissingSegmentError(x12.TagAK1, fmt.Sprintf("%s appears outside a functional group response", seg.Tag()))
	case *x12.ISA:
		return nil, errSecondInterchange()
	case *x12.GS, *x12.ST, *x12.SE, *x12.GE, *x12.IEA:
		return st, nil
	case *x12.Unknown:
		s.skipUnknown(seg)
		return st, nil
	default:
		return nil, errUnhandled(seg)
	}
}

func (awaitingGroup) finish(s *scan) error {
	if len(s.groups) == 0 {
		return x12.NewMissingSegmentError(x12.TagAK1, "no functional group response found")
	}
	return nil
}

func (st inGroup) next(s *scan, seg x12.Segment) (scanState, error) {
	switch seg := seg.(type) {
	case *x12.AK2:
		return inTransaction{group: st.group, current: &txnAccumulator{ak2: seg}}, nil
	case *x12.AK3, *x12.AK4, *x12.AK5:
		s.v.logger.WithFields(logrus.Fields{
			"segment":              seg.Tag(),
			"group_control_number": st.group.ak1.GroupControlNumber,
		}).Warn("orphan_segment")
		return st, nil
	case *x12.AK9:
		s.closeGroup(st.group, seg)
		return awaitingGroup{}, nil
	case *x12.AK1:
		return nil, errGroupNotClosed(st.group)
	case *x12.ISA:
		return nil, errSecondInterchange()
	case *x12.GS, *x12.ST, *x12.SE, *x12.GE, *x12.IEA:
		return st, nil
	case *x12.Unknown:
		s.skipUnknown(seg)
		return st, nil
	default:
		return nil, errUnhandled(seg)
	}
}

func (st inGroup) finish(*scan) error {
	return errGroupNotClosed(st.group)
}

func (st inTransaction) next(s *scan, seg x12.Segment) (scanState, error) {
	switch seg := seg.(type) {
	case *x12.AK2:
		return inTransaction{
			group:   st.group,
			current: &txnAccumulator{ak2: seg},
			pending: append(st.pending, st.current),
		}, nil
	case *x12.AK3:
		st.current.ak3s = append(st.current.ak3s, seg)
		return st, nil
	case *x12.AK4:
		st.current.ak4s = append(st.current.ak4s, elementNote{ak4: seg, owner: st.current.lastAK3()})
		return st, nil
	case *x12.AK5:
		for _, txn := range st.pending {
			st.group.txns = append(st.group.txns, s.v.buildTransaction(txn, seg))
		}
		st.group.txns = append(st.group.txns, s.v.buildTransaction(st.current, seg))
		return inGroup{group: st.group}, nil
	case *x12.AK9:
		for _, txn := range append(st.pending, st.current) {
			s.v.logger.WithFields(logrus.Fields{
				"transaction_set_id":   txn.ak2.TransactionSetID,
				"control_number":       txn.ak2.ControlNumber,
				"group_control_number": st.group.ak1.GroupControlNumber,
			}).Warn("unclosed_transaction")
		}
		s.closeGroup(st.group, seg)
		return awaitingGroup{}, nil
	case *x12.AK1:
		return nil, errGroupNotClosed(st.group)
	case *x12.ISA:
		return nil, errSecondInterchange()
	case *x12.GS, *x12.ST, *x12.SE, *x12.GE, *x12.IEA:
		return st, nil
	case *x12.Unknown:
		s.skipUnknown(seg)
		return st, nil
	default:
		return nil, errUnhandled(seg)
	}
}

func (st inTransaction) finish(*scan) error {
	return errGroupNotClosed(st.group)
}

func (s *scan) closeGroup(g *groupAccumulator, ak9 *x12.AK9) {
	s.groups = append(s.groups, s.v.buildGroup(g, ak9))
}

func (s *scan) skipUnknown(seg *x12.Unknown) {
	s.v.logger.WithField("segment", seg.ID).Debug("unknown_segment_skipped")
}

func errGroupNotClosed(g *groupAccumulator) error {
	return x12.NewMissingSegmentError(x12.TagAK9,
		fmt.Sprintf("functional group response %s is not closed", g.ak1.GroupControlNumber))
}

func errSecondInterchange() error {
	return x12.NewMalformedSegmentError(x12.TagISA, 0, "multiple interchanges in one document are not supported")
}

func errUnhandled(seg x12.Segment) error {
	return x12.NewMalformedSegmentError(seg.Tag(), 0, "unhandled segment type %T", seg)
}
