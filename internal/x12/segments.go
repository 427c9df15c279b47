package x12

// Segment tags with a fixed record shape.
const (
	TagISA = "ISA"
	TagGS  = "GS"
	TagST  = "ST"
	TagAK1 = "AK1"
	TagAK2 = "AK2"
	TagAK3 = "AK3"
	TagAK4 = "AK4"
	TagAK5 = "AK5"
	TagAK9 = "AK9"
	TagSE  = "SE"
	TagGE  = "GE"
	TagIEA = "IEA"
)

// Segment is a parsed segment record. The set of implementations is closed: the
// twelve fixed shapes below plus *Unknown.
type Segment interface {
	// Tag returns the segment tag the record was parsed from.
	Tag() string

	segment()
}

// ISA is the interchange control header.
type ISA struct {
	AuthorizationQualifier string
	AuthorizationInfo      string
	SecurityQualifier      string
	SecurityInfo           string
	SenderQualifier        string
	SenderID               string
	ReceiverQualifier      string
	ReceiverID             string
	Date                   string
	Time                   string
	StandardsID            string
	Version                string
	ControlNumber          string
	AckRequested           string
	UsageIndicator         string
	SubElementSeparator    string
}

// GS is the functional group header.
type GS struct {
	FunctionalIDCode   string
	SenderCode         string
	ReceiverCode       string
	Date               string
	Time               string
	GroupControlNumber string
	ResponsibleAgency  string
	Version            string
}

// ST is the transaction set header.
type ST struct {
	TransactionSetID      string
	ControlNumber         string
	ImplementationConvRef string
}

// AK1 opens a functional group response.
type AK1 struct {
	FunctionalIDCode   string
	GroupControlNumber string
	Version            string
}

// AK2 opens a transaction set response.
type AK2 struct {
	TransactionSetID      string
	ControlNumber         string
	ImplementationConvRef string
}

// AK3 reports a data segment note.
type AK3 struct {
	SegmentID       string
	Position        int
	LoopID          string
	SyntaxErrorCode string
}

// AK4 reports a data element note.
type AK4 struct {
	ElementPosition  int
	ElementReference *int
	SyntaxErrorCode  string
	BadData          string
}

// AK5 closes a transaction set response.
type AK5 struct {
	AckCode          string
	SyntaxErrorCodes [5]string
}

// ErrorCodes returns the non-empty syntax error codes in slot order.
func (s *AK5) ErrorCodes() []string {
	return nonEmpty(s.SyntaxErrorCodes[:])
}

// AK9 closes a functional group response.
type AK9 struct {
	AckCode          string
	Included         int
	Received         int
	Accepted         int
	SyntaxErrorCodes [5]string
}

// ErrorCodes returns the non-empty syntax error codes in slot order.
func (s *AK9) ErrorCodes() []string {
	return nonEmpty(s.SyntaxErrorCodes[:])
}

// SE is the transaction set trailer.
type SE struct {
	SegmentCount  int
	ControlNumber string
}

// GE is the functional group trailer.
type GE struct {
	TransactionSetCount int
	GroupControlNumber  string
}

// IEA is the interchange control trailer.
type IEA struct {
	GroupCount    int
	ControlNumber string
}

// Unknown is a well-formed segment whose tag has no fixed shape.
type Unknown struct {
	ID       string
	Elements Elements
}

func (*ISA) Tag() string { return TagISA }
func (*GS) Tag() string  { return TagGS }
func (*ST) Tag() string  { return TagST }
func (*AK1) Tag() string { return TagAK1 }
func (*AK2) Tag() string { return TagAK2 }
func (*AK3) Tag() string { return TagAK3 }
func (*AK4) Tag() string { return TagAK4 }
func (*AK5) Tag() string { return TagAK5 }
func (*AK9) Tag() string { return TagAK9 }
func (*SE) Tag() string  { return TagSE }
func (*GE) Tag() string  { return TagGE }
func (*IEA) Tag() string { return TagIEA }
func (u *Unknown) Tag() string {
	return u.ID
}

func (*ISA) segment()     {}
func (*GS) segment()      {}
func (*ST) segment()      {}
func (*AK1) segment()     {}
func (*AK2) segment()     {}
func (*AK3) segment()     {}
func (*AK4) segment()     {}
func (*AK5) segment()     {}
func (*AK9) segment()     {}
func (*SE) segment()      {}
func (*GE) segment()      {}
func (*IEA) segment()     {}
func (*Unknown) segment() {}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
