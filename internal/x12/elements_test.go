package x12

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElements_Accessors(t *testing.T) {
	el := Split("AK4*2**7", defaultDelims())

	assert.Equal(t, "AK4", el.Tag())
	assert.Equal(t, 3, el.Count())

	v, err := el.Required(1)
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	assert.Equal(t, "fallback", el.Optional(2, "fallback"))
	assert.Equal(t, "fallback", el.Optional(9, "fallback"))

	n, err := el.Int(3)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	ref, err := el.OptionalInt(2)
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestElements_RequiredErrors(t *testing.T) {
	el := Split("AK1**1234", defaultDelims())

	_, err := el.Required(1)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMalformedSegment))
	assert.Contains(t, err.Error(), "empty")

	_, err = el.Required(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "AK1", pe.Segment)
	assert.Equal(t, 5, pe.Position)
}

func TestElements_WhitespaceRequired(t *testing.T) {
	el := Split("ISA*00*          *00", defaultDelims())
	v, err := el.Required(2)
	require.NoError(t, err)
	assert.Len(t, v, 10)
}

func TestElements_IntError(t *testing.T) {
	el := Split("AK9*A*ABC*1*1", defaultDelims())

	_, err := el.Int(2)
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeMalformedSegment))
	assert.Contains(t, err.Error(), "position 2")
	assert.Contains(t, err.Error(), "ABC")
}

func TestSegmentIDAndCount(t *testing.T) {
	assert.Equal(t, "AK1", SegmentID("  AK1*PO*1234", defaultDelims()))
	assert.Equal(t, "", SegmentID("", defaultDelims()))
	assert.Equal(t, 3, ElementCount("AK1*PO*1234", defaultDelims()))
	assert.Equal(t, 0, ElementCount("", defaultDelims()))
}

func TestSplitComposite(t *testing.T) {
	d := Delimiters{Element: '*', Segment: '~', SubElement: ':'}
	assert.Equal(t, []string{"C040", "020"}, SplitComposite("C040:020", d))
	assert.Equal(t, []string{"C040"}, SplitComposite("C040", d))
	assert.Nil(t, SplitComposite("", d))
}

func TestSplitRepeating(t *testing.T) {
	withRep := DefaultDelimiters()
	assert.Equal(t, []string{"A", "B", "C"}, SplitRepeating("A^B^C", withRep))
	assert.Equal(t, []string{"ABC"}, SplitRepeating("ABC", withRep))

	noRep := Delimiters{Element: '*', Segment: '~', SubElement: ':'}
	assert.Equal(t, []string{"A^B^C"}, SplitRepeating("A^B^C", noRep))
	assert.Nil(t, SplitRepeating("", noRep))
}

func TestValidateSegmentStructure(t *testing.T) {
	d := defaultDelims()
	assert.True(t, ValidateSegmentStructure("AK1*PO*1234", d))
	assert.True(t, ValidateSegmentStructure("N1*ST*NAME", d))
	assert.False(t, ValidateSegmentStructure("AK1", d))
	assert.False(t, ValidateSegmentStructure("ak1*PO", d))
	assert.False(t, ValidateSegmentStructure("ABCD*PO", d))
	assert.False(t, ValidateSegmentStructure("1AB*PO", d))
}
