// Package codes resolves X12 acknowledgment and syntax error codes to descriptions,
// severities and accept/partial/reject classifications.
//
// Code tables are loaded once from YAML and are read-only afterwards, so a Resolver
// is safe for concurrent use.
package codes

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed error_codes.yaml
var defaultTables []byte

// Category names one code table.
type Category string

const (
	SegmentSyntax         Category = "segment_syntax_errors"
	ElementSyntax         Category = "element_syntax_errors"
	TransactionSetSyntax  Category = "transaction_set_syntax_errors"
	FunctionalGroupSyntax Category = "functional_group_syntax_errors"
	TransactionSetAck     Category = "transaction_set_ack_codes"
	FunctionalGroupAck    Category = "functional_group_ack_codes"
	Custom                Category = "custom_errors"
)

// Categories lists every table in display order.
var Categories = []Category{
	SegmentSyntax,
	ElementSyntax,
	TransactionSetSyntax,
	FunctionalGroupSyntax,
	TransactionSetAck,
	FunctionalGroupAck,
	Custom,
}

// Classifications of acknowledgment codes.
const (
	ClassAccepted = "accepted"
	ClassPartial  = "partial"
	ClassRejected = "rejected"
	ClassUnknown  = "unknown"
)

// Info describes one code.
type Info struct {
	Code           string `yaml:"code" json:"code"`
	Description    string `yaml:"description" json:"description"`
	Severity       string `yaml:"severity" json:"severity"`
	Classification string `yaml:"classification,omitempty" json:"classification,omitempty"`
}

// unknownLabels builds the fallback description for codes missing from a table.
var unknownLabels = map[Category]string{
	SegmentSyntax:         "segment syntax error",
	ElementSyntax:         "element syntax error",
	TransactionSetSyntax:  "transaction set syntax error",
	FunctionalGroupSyntax: "functional group syntax error",
	TransactionSetAck:     "transaction set ack code",
	FunctionalGroupAck:    "functional group ack code",
	Custom:                "custom error",
}

type document struct {
	Tables map[Category]map[string]Info `yaml:"ak_error_codes"`
}

// Resolver looks codes up in the loaded tables.
type Resolver struct {
	tables map[Category]map[string]Info
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns the resolver for the embedded X12 tables. It is built once.
func Default() *Resolver {
	defaultOnce.Do(func() {
		r, err := Parse(defaultTables)
		if err != nil {
			panic(fmt.Sprintf("codes: embedded tables are invalid: %v", err))
		}
		defaultResolver = r
	})
	return defaultResolver
}

// Load reads code tables from a YAML file.
func Load(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read code tables: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes code tables from YAML. Unknown categories or fields are rejected.
func Parse(data []byte) (*Resolver, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("code tables are empty")
		}
		return nil, fmt.Errorf("parse code tables: %w", err)
	}
	if len(doc.Tables) == 0 {
		return nil, errors.New("code tables: missing ak_error_codes")
	}

	tables := make(map[Category]map[string]Info, len(doc.Tables))
	for cat, entries := range doc.Tables {
		if _, ok := unknownLabels[cat]; !ok {
			return nil, fmt.Errorf("code tables: unknown category %q", cat)
		}
		table := make(map[string]Info, len(entries))
		for key, info := range entries {
			if info.Code == "" {
				info.Code = key
			}
			if info.Description == "" {
				return nil, fmt.Errorf("code tables: %s[%s]: description is required", cat, key)
			}
			if info.Severity == "" {
				info.Severity = "error"
			}
			if isAckCategory(cat) {
				switch info.Classification {
				case ClassAccepted, ClassPartial, ClassRejected:
				default:
					return nil, fmt.Errorf("code tables: %s[%s]: invalid classification %q", cat, key, info.Classification)
				}
			}
			table[key] = info
		}
		tables[cat] = table
	}
	return &Resolver{tables: tables}, nil
}

func isAckCategory(cat Category) bool {
	return cat == TransactionSetAck || cat == FunctionalGroupAck
}

// Lookup returns the table entry for code and whether it exists.
func (r *Resolver) Lookup(cat Category, code string) (Info, bool) {
	info, ok := r.tables[cat][code]
	return info, ok
}

// Resolve returns the entry for code, or a synthesized "Unknown ..." entry.
func (r *Resolver) Resolve(cat Category, code string) Info {
	if info, ok := r.Lookup(cat, code); ok {
		return info
	}
	info := Info{
		Code:        code,
		Description: fmt.Sprintf("Unknown %s: %s", unknownLabels[cat], code),
		Severity:    "error",
	}
	if isAckCategory(cat) {
		info.Classification = ClassUnknown
	}
	return info
}

// SegmentError resolves an AK304 code.
func (r *Resolver) SegmentError(code string) Info { return r.Resolve(SegmentSyntax, code) }

// ElementError resolves an AK403 code.
func (r *Resolver) ElementError(code string) Info { return r.Resolve(ElementSyntax, code) }

// TransactionSetError resolves an AK502-AK506 code.
func (r *Resolver) TransactionSetError(code string) Info {
	return r.Resolve(TransactionSetSyntax, code)
}

// FunctionalGroupError resolves an AK905-AK909 code.
func (r *Resolver) FunctionalGroupError(code string) Info {
	return r.Resolve(FunctionalGroupSyntax, code)
}

// TransactionSetAck resolves an AK501 code.
func (r *Resolver) TransactionSetAck(code string) Info {
	return r.Resolve(TransactionSetAck, strings.ToUpper(code))
}

// FunctionalGroupAck resolves an AK901 code.
func (r *Resolver) FunctionalGroupAck(code string) Info {
	return r.Resolve(FunctionalGroupAck, strings.ToUpper(code))
}

// CustomError resolves a code raised by this tool, such as a parse error code.
func (r *Resolver) CustomError(code string) Info { return r.Resolve(Custom, code) }

// IsAccepted reports whether an AK501 code classifies as accepted.
func (r *Resolver) IsAccepted(code string) bool {
	return r.TransactionSetAck(code).Classification == ClassAccepted
}

// IsRejected reports whether an AK501 code classifies as rejected.
func (r *Resolver) IsRejected(code string) bool {
	return r.TransactionSetAck(code).Classification == ClassRejected
}

// IsPartial reports whether an AK501 code classifies as partially accepted.
func (r *Resolver) IsPartial(code string) bool {
	return r.TransactionSetAck(code).Classification == ClassPartial
}

// All returns every entry of a table ordered by code, numerically where possible.
func (r *Resolver) All(cat Category) []Info {
	table := r.tables[cat]
	out := make([]Info, 0, len(table))
	for _, info := range table {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		return codeLess(out[i].Code, out[j].Code)
	})
	return out
}

func codeLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

var severityLevels = map[string]int{
	"critical": 50,
	"error":    40,
	"warning":  30,
	"info":     20,
	"success":  10,
}

// SeverityLevel ranks a severity name for sorting; higher is more severe and
// unrecognized names rank 0.
func SeverityLevel(severity string) int {
	return severityLevels[strings.ToLower(severity)]
}
