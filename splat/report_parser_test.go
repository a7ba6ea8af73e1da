package splat

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// sampleReport mimics a SPLAT path analysis report, including ISO-8859-1
// degree signs (0xB0) that would not survive UTF-8 decoding.
func sampleReport() []byte {
	return []byte("\t\t--==[ SPLAT! v1.4.2 Path Analysis ]==--\n\n" +
		"---------------------------------------------------------------------------\n\n" +
		"Transmitter site: Menesble\n" +
		"Site location: 47.7819\xb0 North / 355.0908\xb0 West\n" +
		"Antenna height: 41.0 meters AGL / 612.0 meters AMSL\n\n" +
		"Receiver site: Bure\n" +
		"Site location: 47.7387\xb0 North / 355.1107\xb0 West\n\n" +
		"Summary for the link between Menesble and Bure:\n\n" +
		"Free space path loss: 104.55 dB\n" +
		"ITWOM Version 3.0 path loss: 141.82 dB\n" +
		"Attenuation due to terrain shielding: 37.27 dB\n" +
		"Field strength at Bure: 42.53 dBuV/meter\n")
}

func TestParseReport(t *testing.T) {
	report, err := ParseReport(sampleReport())
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}

	if want := decimal.RequireFromString("104.55"); !report.FreeSpacePathLossDB.Equal(want) {
		t.Errorf("FreeSpacePathLossDB = %s, want %s", report.FreeSpacePathLossDB, want)
	}
	if want := decimal.RequireFromString("141.82"); !report.ITWOMPathLossDB.Equal(want) {
		t.Errorf("ITWOMPathLossDB = %s, want %s", report.ITWOMPathLossDB, want)
	}
	if want := decimal.RequireFromString("42.53"); !report.FieldStrengthDBuVm.Equal(want) {
		t.Errorf("FieldStrengthDBuVm = %s, want %s", report.FieldStrengthDBuVm, want)
	}
}

func TestParseReportMissingFieldStrength(t *testing.T) {
	raw := sampleReport()
	truncated := raw[:strings.Index(string(raw), "Field strength")]

	_, err := ParseReport(truncated)
	var rerr *ReportError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want *ReportError", err)
	}

	// The payload is the full decoded report, degree signs included.
	if !strings.Contains(rerr.Text, "Free space path loss: 104.55 dB") {
		t.Errorf("payload is missing the report body: %q", rerr.Text)
	}
	if !strings.Contains(rerr.Text, "47.7819° North") {
		t.Errorf("payload did not decode ISO-8859-1 degree signs: %q", rerr.Text)
	}
}

func TestParseReportOutOfOrder(t *testing.T) {
	// Field strength appearing before the ITWOM loss must not satisfy
	// the ordered scan.
	raw := []byte("Free space path loss: 104.55 dB\n" +
		"Field strength at Bure: 42.53 dBuV/meter\n" +
		"ITWOM Version 3.0 path loss: 141.82 dB\n")

	_, err := ParseReport(raw)
	var rerr *ReportError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want *ReportError", err)
	}
}

func TestParseReportPicksFirstFieldStrengthAfterITWOM(t *testing.T) {
	raw := []byte("12.34 dBuV/meter\n" +
		"Free space path loss: 104.55 dB\n" +
		"56.78 dBuV/meter\n" +
		"ITWOM Version 3.0 path loss: 141.82 dB\n" +
		"Field strength at Bure: 42.53 dBuV/meter\n" +
		"Another reading: 99.99 dBuV/meter\n")

	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if want := decimal.RequireFromString("42.53"); !report.FieldStrengthDBuVm.Equal(want) {
		t.Errorf("FieldStrengthDBuVm = %s, want %s", report.FieldStrengthDBuVm, want)
	}
}

func TestParseReportEmpty(t *testing.T) {
	_, err := ParseReport(nil)
	var rerr *ReportError
	if !errors.As(err, &rerr) {
		t.Fatalf("got %v, want *ReportError", err)
	}
	if rerr.Text != "" {
		t.Errorf("payload = %q, want empty", rerr.Text)
	}
}
