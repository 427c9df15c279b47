package x12

import (
	"fmt"
)

// Delimiters holds the separator characters of one interchange.
//
// Element, Segment and SubElement are always set. Repetition is optional; the zero
// byte means "unset" and repetition splitting becomes a no-op.
//
// Delimiters are created once per document and never mutated.
type Delimiters struct {
	Element    byte
	Segment    byte
	SubElement byte
	Repetition byte
}

// DefaultDelimiters returns the conventional separators `* ~ : ^`.
func DefaultDelimiters() Delimiters {
	return Delimiters{Element: '*', Segment: '~', SubElement: ':', Repetition: '^'}
}

// HasRepetition reports whether a repetition separator is set.
func (d Delimiters) HasRepetition() bool {
	return d.Repetition != 0
}

// Validate checks that all set separators are mutually distinct.
func (d Delimiters) Validate() error {
	seps := []byte{d.Element, d.Segment, d.SubElement}
	if d.HasRepetition() {
		seps = append(seps, d.Repetition)
	}
	for i := 0; i < len(seps); i++ {
		if seps[i] == 0 {
			return NewDelimiterConflictError(d)
		}
		for j := i + 1; j < len(seps); j++ {
			if seps[i] == seps[j] {
				return NewDelimiterConflictError(d)
			}
		}
	}
	return nil
}

// Printable reports whether every set separator is printable ASCII (0x20-0x7E).
// Detected delimiters may legitimately use a line break as the segment
// terminator, so this is only enforced for configured delimiters.
func (d Delimiters) Printable() bool {
	seps := []byte{d.Element, d.Segment, d.SubElement}
	if d.HasRepetition() {
		seps = append(seps, d.Repetition)
	}
	for _, s := range seps {
		if s < 0x20 || s > 0x7e {
			return false
		}
	}
	return true
}

// String renders the delimiters for logs and error messages.
func (d Delimiters) String() string {
	rep := "none"
	if d.HasRepetition() {
		rep = fmt.Sprintf("%q", d.Repetition)
	}
	return fmt.Sprintf("element=%q segment=%q sub_element=%q repetition=%s",
		d.Element, d.Segment, d.SubElement, rep)
}

// DelimitersFromStrings builds Delimiters from single-character strings, as found in
// configuration files. An empty repetition leaves it unset.
func DelimitersFromStrings(element, segment, subElement, repetition string) (Delimiters, error) {
	var d Delimiters
	for _, f := range []struct {
		name string
		val  string
		dst  *byte
		opt  bool
	}{
		{"element", element, &d.Element, false},
		{"segment", segment, &d.Segment, false},
		{"sub_element", subElement, &d.SubElement, false},
		{"repetition", repetition, &d.Repetition, true},
	} {
		if f.val == "" && f.opt {
			continue
		}
		if len(f.val) != 1 {
			return Delimiters{}, fmt.Errorf("%s delimiter must be a single character, got %q", f.name, f.val)
		}
		*f.dst = f.val[0]
	}
	if err := d.Validate(); err != nil {
		return Delimiters{}, err
	}
	return d, nil
}
