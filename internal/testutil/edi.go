package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/edi997/internal/x12"
)

// Transaction describes one AK2 loop of a generated 997.
type Transaction struct {
	SetID         string
	ControlNumber string
	AckCode       string

	// Body holds AK3/AK4 segments as element lists, tag first.
	Body [][]string

	// SyntaxCodes are written to AK5-02 onwards.
	SyntaxCodes []string
}

// Accepted returns an accepted transaction with no errors.
func Accepted(setID, controlNumber string) Transaction {
	return Transaction{SetID: setID, ControlNumber: controlNumber, AckCode: "A"}
}

// Rejected returns a rejected transaction. body elements are AK3/AK4 segments.
func Rejected(setID, controlNumber, syntaxCode string, body ...[]string) Transaction {
	t := Transaction{SetID: setID, ControlNumber: controlNumber, AckCode: "R", Body: body}
	if syntaxCode != "" {
		t.SyntaxCodes = []string{syntaxCode}
	}
	return t
}

// Group describes one AK1..AK9 loop.
type Group struct {
	FunctionalID  string
	ControlNumber string
	AckCode       string
	Transactions  []Transaction

	// Included and Received default to len(Transactions); Accepted defaults to the
	// number of transactions with code A or E. Negative means "derive".
	Included, Received, Accepted int

	SyntaxCodes []string
}

// Document builds 997 interchanges for tests.
type Document struct {
	Delimiters    x12.Delimiters
	SenderID      string
	ReceiverID    string
	ControlNumber string
	Groups        []Group
}

// NewDocument returns a builder with `* ~ >` delimiters and a fixed envelope.
func NewDocument() *Document {
	return &Document{
		Delimiters:    x12.Delimiters{Element: '*', Segment: '~', SubElement: '>'},
		SenderID:      "SENDER",
		ReceiverID:    "RECEIVER",
		ControlNumber: "000000001",
	}
}

// WithDelimiters replaces the delimiters.
func (d *Document) WithDelimiters(delims x12.Delimiters) *Document {
	d.Delimiters = delims
	return d
}

// AddGroup appends a group whose counts are derived from its transactions.
func (d *Document) AddGroup(functionalID, controlNumber, ackCode string, txns ...Transaction) *Document {
	d.Groups = append(d.Groups, Group{
		FunctionalID:  functionalID,
		ControlNumber: controlNumber,
		AckCode:       ackCode,
		Transactions:  txns,
		Included:      -1,
		Received:      -1,
		Accepted:      -1,
	})
	return d
}

// Segments renders the interchange as segment strings without terminators.
func (d *Document) Segments() []string {
	e := string(d.Delimiters.Element)
	join := func(elems ...string) string { return strings.Join(elems, e) }

	segs := []string{d.isa()}
	segs = append(segs, join("GS", "FA", d.SenderID, d.ReceiverID, "20230101", "1200", "1", "X", "004010"))
	segs = append(segs, join("ST", "997", "0001"))
	stStart := len(segs) - 1

	for _, g := range d.Groups {
		segs = append(segs, join("AK1", g.FunctionalID, g.ControlNumber))
		accepted := 0
		for _, t := range g.Transactions {
			segs = append(segs, join("AK2", t.SetID, t.ControlNumber))
			for _, b := range t.Body {
				segs = append(segs, join(b...))
			}
			segs = append(segs, join(append([]string{"AK5", t.AckCode}, t.SyntaxCodes...)...))
			if t.AckCode == "A" || t.AckCode == "E" {
				accepted++
			}
		}
		included := derive(g.Included, len(g.Transactions))
		received := derive(g.Received, len(g.Transactions))
		segs = append(segs, join(append([]string{"AK9", g.AckCode,
			fmt.Sprint(included), fmt.Sprint(received), fmt.Sprint(derive(g.Accepted, accepted))},
			g.SyntaxCodes...)...))
	}

	segs = append(segs, join("SE", fmt.Sprint(len(segs)-stStart+1), "0001"))
	segs = append(segs, join("GE", "1", "1"), join("IEA", "1", d.ControlNumber))
	return segs
}

// String renders the interchange with a terminator after every segment.
func (d *Document) String() string {
	t := string(d.Delimiters.Segment)
	return strings.Join(d.Segments(), t) + t
}

// Bytes renders the interchange as bytes.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

func (d *Document) isa() string {
	e := string(d.Delimiters.Element)
	fields := []string{
		"ISA", "00", pad("", 10), "00", pad("", 10),
		"ZZ", pad(d.SenderID, 15), "ZZ", pad(d.ReceiverID, 15),
		"230101", "1200", "U", "00401", d.ControlNumber, "0", "P",
		string(d.Delimiters.SubElement),
	}
	return strings.Join(fields, e)
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func derive(v, def int) int {
	if v < 0 {
		return def
	}
	return v
}

// Accepted997 is a one-group, one-transaction accepted interchange.
func Accepted997() string {
	return NewDocument().AddGroup("PO", "1234", "A", Accepted("850", "5678")).String()
}

// Rejected997 is a one-group interchange with a rejected transaction carrying a
// segment error and an element error.
func Rejected997() string {
	return NewDocument().AddGroup("PO", "1234", "R",
		Rejected("850", "5678", "5",
			[]string{"AK3", "N1", "2", "", "8"},
			[]string{"AK4", "3", "98", "7", "XX"},
		),
	).String()
}

// Partial997 is a one-group interchange with one accepted and one rejected
// transaction.
func Partial997() string {
	return NewDocument().AddGroup("PO", "1234", "P",
		Accepted("850", "5678"),
		Rejected("850", "5679", "5", []string{"AK3", "PO1", "3", "", "8"}),
	).String()
}
