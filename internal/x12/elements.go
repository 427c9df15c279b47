package x12

import (
	"regexp"
	"strconv"
	"strings"
)

// tagPattern matches a segment tag: 2-3 characters, uppercase letter first.
var tagPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,2}$`)

// Elements is one segment split on the element separator. Index 0 is the tag, so
// data element N lives at index N.
type Elements []string

// Split splits a segment string into its elements. An empty segment yields nil.
func Split(segment string, d Delimiters) Elements {
	if segment == "" {
		return nil
	}
	return Elements(strings.Split(segment, string(d.Element)))
}

// Tag returns the trimmed segment tag, or "" for an empty segment.
func (e Elements) Tag() string {
	if len(e) == 0 {
		return ""
	}
	return strings.TrimSpace(e[0])
}

// Count returns the number of data elements, excluding the tag.
func (e Elements) Count() int {
	if len(e) == 0 {
		return 0
	}
	return len(e) - 1
}

// Get returns the raw element at position and whether it exists.
func (e Elements) Get(position int) (string, bool) {
	if position < 0 || position >= len(e) {
		return "", false
	}
	return e[position], true
}

// Required returns the raw element at position. Missing or empty elements fail.
// Whitespace-only values pass; several ISA fields are legitimately all spaces.
func (e Elements) Required(position int) (string, error) {
	v, ok := e.Get(position)
	if !ok {
		return "", NewMalformedSegmentError(e.Tag(), position,
			"required element at position %d is missing, segment has %d elements", position, len(e))
	}
	if v == "" {
		return "", NewMalformedSegmentError(e.Tag(), position, "required element at position %d is empty", position)
	}
	return v, nil
}

// Optional returns the raw element at position, or def when missing or empty.
func (e Elements) Optional(position int, def string) string {
	v, ok := e.Get(position)
	if !ok || v == "" {
		return def
	}
	return v
}

// Int parses the required element at position as an integer.
func (e Elements) Int(position int) (int, error) {
	v, err := e.Required(position)
	if err != nil {
		return 0, err
	}
	return e.parseInt(position, v)
}

// OptionalInt parses the element at position as an integer, or returns nil when
// the element is missing or empty.
func (e Elements) OptionalInt(position int) (*int, error) {
	v, ok := e.Get(position)
	if !ok || v == "" {
		return nil, nil
	}
	n, err := e.parseInt(position, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (e Elements) parseInt(position int, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		pe := NewMalformedSegmentError(e.Tag(), position, "element at position %d (%q) is not a valid integer", position, v)
		pe.Err = err
		return 0, pe
	}
	return n, nil
}

// SegmentID returns the trimmed tag of a raw segment.
func SegmentID(segment string, d Delimiters) string {
	return Split(segment, d).Tag()
}

// ElementCount returns the number of elements in a raw segment, tag included.
func ElementCount(segment string, d Delimiters) int {
	return len(Split(segment, d))
}

// SplitComposite splits an element on the sub-element separator. An element without
// the separator comes back as a single value; an empty element yields nil.
func SplitComposite(element string, d Delimiters) []string {
	if element == "" {
		return nil
	}
	if d.SubElement == 0 || strings.IndexByte(element, d.SubElement) < 0 {
		return []string{element}
	}
	return strings.Split(element, string(d.SubElement))
}

// SplitRepeating splits an element on the repetition separator. When the separator
// is unset or absent the element is one repetition.
func SplitRepeating(element string, d Delimiters) []string {
	if element == "" {
		return nil
	}
	if !d.HasRepetition() || strings.IndexByte(element, d.Repetition) < 0 {
		return []string{element}
	}
	return strings.Split(element, string(d.Repetition))
}

// ValidateSegmentStructure reports whether segment has a well-formed tag followed by
// at least one element separator.
func ValidateSegmentStructure(segment string, d Delimiters) bool {
	if strings.IndexByte(segment, d.Element) < 0 {
		return false
	}
	return tagPattern.MatchString(SegmentID(segment, d))
}
