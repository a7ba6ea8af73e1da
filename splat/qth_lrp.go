package splat

import (
	"fmt"
	"strings"
)

// Encode renders the 4-line .qth site description. SPLAT parses the
// file by line position: name, latitude, east-to-west longitude, height
// with a literal " meters" suffix.
func (q QTHFields) Encode() string {
	return fmt.Sprintf("%s\n%s\n%s\n%s meters", q.Name, q.Latitude, q.LongitudeEtoW, q.HeightM)
}

// Encode renders the 9-line .lrp link parameter file. Line order is
// load-bearing; the inline comments after each value are documentation
// only and are never re-parsed. The conductivity line carries no tab
// before its comment, matching SPLAT's stock sample files.
func (l LRPFields) Encode() string {
	lines := []string{
		l.EarthDielectricConstant.String() + "\t; Earth Dielectric Constant (Relative permittivity)",
		l.EarthConductivity.String() + "; Earth Conductivity (Siemens per meter)",
		l.AtmosphericBendingConstant.String() + "\t; Atmospheric Bending Constant (N-Units)",
		l.FrequencyMHz.String() + "\t; Frequency in MHz (20 MHz to 20 GHz)",
		fmt.Sprintf("%d\t; Radio Climate", l.RadioClimate),
		fmt.Sprintf("%d\t; Polarization (0 = Horizontal, 1 = Vertical)", l.Polarization),
		l.FractionSituations.String() + "\t; Fraction of Situations",
		l.FractionTime.String() + "\t; Fraction of Time",
		l.ErpW.String() + " ; ERP",
	}
	return strings.Join(lines, "\n")
}
