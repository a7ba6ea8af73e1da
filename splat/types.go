// Package splat wraps the SPLAT! point-to-point RF propagation tool:
// it renders transmitter/receiver sites into SPLAT's positional .qth
// and .lrp input files, runs the tool in a scoped workspace under a
// hard timeout, and extracts free-space path loss, ITWOM path loss and
// received field strength from the report it writes.
//
// All coordinates, heights and power levels are held as exact decimals.
// SPLAT parses its inputs positionally and the report filename embeds
// the site names, so the textual form of every field must regenerate
// byte for byte; float64 would not survive that round trip.
package splat

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Polarization selects the antenna polarization in the .lrp file.
type Polarization int

const (
	Horizontal Polarization = 0
	Vertical   Polarization = 1
)

// RadioClimate selects SPLAT's atmospheric refractivity model (codes 1-9).
type RadioClimate int

const (
	ClimateEquatorial             RadioClimate = 1
	ClimateContinentalSubtropical RadioClimate = 2
	ClimateMaritimeSubtropical    RadioClimate = 3
	ClimateDesert                 RadioClimate = 4
	ClimateContinentalTemperate   RadioClimate = 5
	ClimateMaritimeTemperateLand  RadioClimate = 6
	ClimateMaritimeTemperateSea   RadioClimate = 7
)

var (
	fullCircle   = decimal.NewFromInt(360)
	dipoleFactor = decimal.RequireFromString("1.64")

	frequencyMin = decimal.NewFromInt(20)
	frequencyMax = decimal.NewFromInt(20000)

	// Link-model constants written into every .lrp file.
	earthDielectricConstant    = decimal.RequireFromString("15.000")
	earthConductivity          = decimal.RequireFromString("0.005")
	atmosphericBendingConstant = decimal.RequireFromString("301.000")
	fractionSituations         = decimal.RequireFromString("0.50")
	fractionTime               = decimal.RequireFromString("0.50")
)

// Transmitter is an immutable description of the radiating site.
type Transmitter struct {
	Name          string
	Latitude      decimal.Decimal // decimal degrees, north positive
	LongitudeWtoE decimal.Decimal // decimal degrees, increasing eastward
	HeightM       decimal.Decimal // meters above ground
	EirpW         decimal.Decimal // effective isotropic radiated power, watts
	FrequencyMHz  decimal.Decimal
	Polarization  Polarization
	RadioClimate  RadioClimate
}

// Receiver is an immutable description of the passive site.
type Receiver struct {
	Name          string
	Latitude      decimal.Decimal
	LongitudeWtoE decimal.Decimal
	HeightM       decimal.Decimal
}

// QTHFields is the transient projection written into a .qth site file.
// Longitude is converted to SPLAT's east-to-west convention.
type QTHFields struct {
	Name          string
	Latitude      decimal.Decimal
	LongitudeEtoW decimal.Decimal
	HeightM       decimal.Decimal
}

// LRPFields is the transient projection written into a .lrp link
// parameter file. ErpW is the dipole-referenced power (EIRP / 1.64).
type LRPFields struct {
	EarthDielectricConstant    decimal.Decimal
	EarthConductivity          decimal.Decimal
	AtmosphericBendingConstant decimal.Decimal
	FrequencyMHz               decimal.Decimal
	RadioClimate               RadioClimate
	Polarization               Polarization
	FractionSituations         decimal.Decimal
	FractionTime               decimal.Decimal
	ErpW                       decimal.Decimal
}

// NewTransmitter builds a validated Transmitter from exact-decimal text
// fields. Decimal parse failures and out-of-range values return a
// *ValidationError.
func NewTransmitter(name, latitude, longitudeWtoE, heightM, eirpW, frequencyMHz string, pol Polarization, climate RadioClimate) (Transmitter, error) {
	var tx Transmitter
	var err error

	if err = validateName(name); err != nil {
		return Transmitter{}, err
	}
	tx.Name = name
	if tx.Latitude, err = parseDecimal("latitude", latitude); err != nil {
		return Transmitter{}, err
	}
	if tx.LongitudeWtoE, err = parseDecimal("longitude_wtoe", longitudeWtoE); err != nil {
		return Transmitter{}, err
	}
	if tx.HeightM, err = parseDecimal("height_m", heightM); err != nil {
		return Transmitter{}, err
	}
	if tx.EirpW, err = parseDecimal("eirp_w", eirpW); err != nil {
		return Transmitter{}, err
	}
	if tx.FrequencyMHz, err = parseDecimal("frequency_mhz", frequencyMHz); err != nil {
		return Transmitter{}, err
	}
	if tx.FrequencyMHz.LessThan(frequencyMin) || tx.FrequencyMHz.GreaterThan(frequencyMax) {
		return Transmitter{}, &ValidationError{Field: "frequency_mhz", Value: frequencyMHz, Reason: "must be between 20 and 20000 MHz"}
	}
	if pol != Horizontal && pol != Vertical {
		return Transmitter{}, &ValidationError{Field: "polarization", Value: itoa(int(pol)), Reason: "must be 0 (horizontal) or 1 (vertical)"}
	}
	tx.Polarization = pol
	if climate < 1 || climate > 9 {
		return Transmitter{}, &ValidationError{Field: "radio_climate", Value: itoa(int(climate)), Reason: "must be between 1 and 9"}
	}
	tx.RadioClimate = climate

	return tx, nil
}

// NewTransmitterFromFloats builds a Transmitter from binary floats. Each
// value is coerced through its shortest decimal string form, never a
// direct binary cast, so 0.1 stays 0.1.
func NewTransmitterFromFloats(name string, latitude, longitudeWtoE, heightM, eirpW, frequencyMHz float64, pol Polarization, climate RadioClimate) (Transmitter, error) {
	return NewTransmitter(name,
		decimal.NewFromFloat(latitude).String(),
		decimal.NewFromFloat(longitudeWtoE).String(),
		decimal.NewFromFloat(heightM).String(),
		decimal.NewFromFloat(eirpW).String(),
		decimal.NewFromFloat(frequencyMHz).String(),
		pol, climate)
}

// NewReceiver builds a validated Receiver from exact-decimal text fields.
func NewReceiver(name, latitude, longitudeWtoE, heightM string) (Receiver, error) {
	var rx Receiver
	var err error

	if err = validateName(name); err != nil {
		return Receiver{}, err
	}
	rx.Name = name
	if rx.Latitude, err = parseDecimal("latitude", latitude); err != nil {
		return Receiver{}, err
	}
	if rx.LongitudeWtoE, err = parseDecimal("longitude_wtoe", longitudeWtoE); err != nil {
		return Receiver{}, err
	}
	if rx.HeightM, err = parseDecimal("height_m", heightM); err != nil {
		return Receiver{}, err
	}

	return rx, nil
}

// NewReceiverFromFloats builds a Receiver from binary floats via their
// shortest decimal string form.
func NewReceiverFromFloats(name string, latitude, longitudeWtoE, heightM float64) (Receiver, error) {
	return NewReceiver(name,
		decimal.NewFromFloat(latitude).String(),
		decimal.NewFromFloat(longitudeWtoE).String(),
		decimal.NewFromFloat(heightM).String())
}

// QTH projects the transmitter into SPLAT's site-file field order.
func (t Transmitter) QTH() QTHFields {
	return QTHFields{
		Name:          t.Name,
		Latitude:      t.Latitude,
		LongitudeEtoW: longitudeEtoW(t.LongitudeWtoE),
		HeightM:       t.HeightM,
	}
}

// LRP projects the transmitter's radio parameters into SPLAT's link
// parameter field order.
func (t Transmitter) LRP() LRPFields {
	return LRPFields{
		EarthDielectricConstant:    earthDielectricConstant,
		EarthConductivity:          earthConductivity,
		AtmosphericBendingConstant: atmosphericBendingConstant,
		FrequencyMHz:               t.FrequencyMHz,
		RadioClimate:               t.RadioClimate,
		Polarization:               t.Polarization,
		FractionSituations:         fractionSituations,
		FractionTime:               fractionTime,
		ErpW:                       t.EirpW.Div(dipoleFactor),
	}
}

// QTH projects the receiver into SPLAT's site-file field order.
func (r Receiver) QTH() QTHFields {
	return QTHFields{
		Name:          r.Name,
		Latitude:      r.Latitude,
		LongitudeEtoW: longitudeEtoW(r.LongitudeWtoE),
		HeightM:       r.HeightM,
	}
}

// longitudeEtoW converts a west-to-east longitude into SPLAT's
// east-to-west convention, normalized into [0, 360).
func longitudeEtoW(wtoE decimal.Decimal) decimal.Decimal {
	e := fullCircle.Sub(wtoE).Mod(fullCircle)
	if e.IsNegative() {
		e = e.Add(fullCircle)
	}
	return e
}

// parseDecimal is the single coercion point for decimal-typed fields.
func parseDecimal(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Field: field, Value: value, Err: err}
	}
	return d, nil
}

// validateName rejects site names that would corrupt workspace paths or
// the report filename SPLAT derives from them.
func validateName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Field: "name", Value: name, Reason: "must not be empty"}
	case strings.ContainsAny(name, "/\\ \t\n"):
		return &ValidationError{Field: "name", Value: name, Reason: "must not contain whitespace or path separators"}
	}
	return nil
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
