package x12

import "strings"

// isaBody is a 105-character ISA segment without its terminator; ISA16 is '>'.
const isaBody = "ISA*00*          *00*          *ZZ*SENDER         *ZZ*RECEIVER       *230101*1200*U*00401*000000001*0*P*>"

// sample997 builds a minimal accepted 997 using the given terminator.
func sample997(term string) string {
	segs := []string{
		isaBody,
		"GS*FA*SENDER*RECEIVER*20230101*1200*1*X*004010",
		"ST*997*0001",
		"AK1*PO*1234",
		"AK9*A*1*1*1",
		"SE*4*0001",
		"GE*1*1",
		"IEA*1*000000001",
	}
	return strings.Join(segs, term) + term
}

func defaultDelims() Delimiters {
	return Delimiters{Element: '*', Segment: '~', SubElement: '>'}
}
