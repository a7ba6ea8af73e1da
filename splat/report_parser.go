package splat

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// LinkReport holds the three quantities extracted from a SPLAT path
// analysis report.
type LinkReport struct {
	FreeSpacePathLossDB decimal.Decimal
	ITWOMPathLossDB     decimal.Decimal
	FieldStrengthDBuVm  decimal.Decimal
}

var (
	freeSpaceLossPattern = regexp.MustCompile(`Free space path loss: (\d*\.\d*) dB`)
	itwomLossPattern     = regexp.MustCompile(`ITWOM Version 3\.0 path loss: (\d*\.\d*) dB`)
	fieldStrengthPattern = regexp.MustCompile(`(\d*\.\d*) dBuV/meter`)
)

// ParseReport extracts the free-space path loss, ITWOM path loss and
// received field strength from a raw report file. SPLAT emits reports
// in ISO-8859-1 (the encoding of its gnuplot output), not UTF-8.
//
// The three patterns must appear in document order, each located by an
// independent search over the text remaining after the previous match.
// Extraction is all-or-nothing: any miss returns a *ReportError
// carrying the full decoded text.
func ParseReport(raw []byte) (LinkReport, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return LinkReport{}, fmt.Errorf("decode report: %w", err)
	}
	text := string(decoded)

	rest := text
	var values [3]decimal.Decimal
	for i, pattern := range []*regexp.Regexp{freeSpaceLossPattern, itwomLossPattern, fieldStrengthPattern} {
		m := pattern.FindStringSubmatchIndex(rest)
		if m == nil {
			return LinkReport{}, &ReportError{Text: text}
		}
		v, err := decimal.NewFromString(rest[m[2]:m[3]])
		if err != nil {
			return LinkReport{}, &ReportError{Text: text}
		}
		values[i] = v
		rest = rest[m[1]:]
	}

	return LinkReport{
		FreeSpacePathLossDB: values[0],
		ITWOMPathLossDB:     values[1],
		FieldStrengthDBuVm:  values[2],
	}, nil
}
