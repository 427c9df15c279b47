package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadOutbound decodes an outbound group from JSON. Unknown fields, trailing data
// and missing required fields are errors. String fields are trimmed.
func LoadOutbound(r io.Reader) (OutboundFunctionalGroup, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var g OutboundFunctionalGroup
	if err := dec.Decode(&g); err != nil {
		return OutboundFunctionalGroup{}, fmt.Errorf("decode outbound group: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return OutboundFunctionalGroup{}, errors.New("decode outbound group: unexpected data after JSON object")
	}

	g.normalize()
	if g.Transactions == nil {
		g.Transactions = []OutboundTransaction{}
	}
	if err := g.Validate(); err != nil {
		return OutboundFunctionalGroup{}, err
	}
	return g, nil
}

// LoadOutboundFile reads an outbound group from a JSON file.
func LoadOutboundFile(path string) (OutboundFunctionalGroup, error) {
	f, err := os.Open(path)
	if err != nil {
		return OutboundFunctionalGroup{}, fmt.Errorf("open outbound file: %w", err)
	}
	defer f.Close()

	g, err := LoadOutbound(f)
	if err != nil {
		return OutboundFunctionalGroup{}, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
