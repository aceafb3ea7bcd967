// Package sensorconv implements RFC 3433 entity-sensor value conversion,
// grounded arithmetic-for-arithmetic on
// original_source/src/sonic_ax_impl/mibs/ietf/rfc3433.py's SensorInterface
// and the concrete per-sensor-kind subclasses in that file and
// sensor_data.py.
package sensorconv

import (
	"math"
	"strconv"
)

// DataType is RFC 3433's entSensorDataType enumeration.
type DataType int

const (
	Other DataType = iota + 1
	Unknown
	VoltsAC
	VoltsDC
	Amperes
	Watts
	Hertz
	Celsius
	PercentRH
	RPM
	CMM
	TruthValue
)

// Scale is RFC 3433's entSensorDataScale enumeration.
type Scale int

const (
	Yocto Scale = iota + 1
	Zepto
	Atto
	Femto
	Pico
	Nano
	Micro
	Milli
	Units
	Kilo
	Mega
	Giga
	Tera
	Exa
	Peta
	Zetta
	Yotta
)

// Status is RFC 3433's entSensorStatus enumeration.
type Status int

const (
	StatusOK Status = iota + 1
	StatusUnavailable
	StatusNonOperational
)

// Value range clamp, per RFC 3433.
const (
	RangeMin = -1e9
	RangeMax = 1e9
)

// Converter adjusts a raw float value before scaling, e.g. dBm -> mW.
type Converter func(float64) float64

// DBmToMilliwatts converts a dBm reading to milliwatts:
// mW = 10^(dBm/10).
func DBmToMilliwatts(dBm float64) float64 { return math.Pow(10, dBm/10) }

// Spec describes one sensor kind's RFC 3433 (type, scale, precision) triple
// and optional unit converter, matching original_source's per-sensor
// SensorInterface subclasses (XcvrTempSensor, XcvrRxPowerSensor, ...).
type Spec struct {
	Type       DataType
	Scale      Scale
	Precision  int
	Converter  Converter
}

// XcvrTemperature is grounded on original_source's XcvrTempSensor
// (SFF-8472 1/256-degree steps, expressed as precision 6 against a
// celsius/units declared type+scale).
var XcvrTemperature = Spec{Type: Celsius, Scale: Units, Precision: 6}

// XcvrRxPower is grounded on original_source's XcvrRxPowerSensor: the raw
// dBm reading is converted to milliwatts, then scaled by precision 4
// against a watts/milli declared type+scale.
var XcvrRxPower = Spec{Type: Watts, Scale: Milli, Precision: 4, Converter: DBmToMilliwatts}

// XcvrTxPower mirrors XcvrRxPower.
var XcvrTxPower = Spec{Type: Watts, Scale: Milli, Precision: 4, Converter: DBmToMilliwatts}

// XcvrTxBias is a raw milliamp reading, no unit conversion, grounded on
// original_source's XcvrTxBiasSensor (precision 3).
var XcvrTxBias = Spec{Type: Amperes, Scale: Milli, Precision: 3}

// XcvrVoltage is grounded on original_source's XcvrVoltageSensor.
var XcvrVoltage = Spec{Type: VoltsDC, Scale: Units, Precision: 4}

// PSUTemperature, PSUVoltage, PSUCurrent and PSUPower are grounded on
// original_source's PSUTempSensor/PSUVoltageSensor/PSUCurrentSensor/
// PSUPowerSensor, all precision 3 against a units scale.
var (
	PSUTemperature = Spec{Type: Celsius, Scale: Units, Precision: 3}
	PSUVoltage     = Spec{Type: VoltsDC, Scale: Units, Precision: 3}
	PSUCurrent     = Spec{Type: Amperes, Scale: Units, Precision: 3}
	PSUPower       = Spec{Type: Watts, Scale: Units, Precision: 3}
)

// FanSpeed is grounded on original_source's FANSpeedSensor: no declared
// unit (RFC 3433 "unknown"), integer RPM values.
var FanSpeed = Spec{Type: Unknown, Scale: Units, Precision: 0}

// ChassisThermal is grounded on original_source's ThermalSensor.
var ChassisThermal = Spec{Type: Celsius, Scale: Units, Precision: 3}

// Convert parses raw (a DB field's string value) as a float and scales it
// per spec (spec.Converter if set, then *10^Precision), clamping to
// [RangeMin, RangeMax] and rounding to the nearest integer. An unparsable
// raw value (including the sentinel "UNKNOWN") reports StatusUnavailable
// with value 0, matching original_source's SensorInterface.mib_values.
// strconv.ParseFloat already accepts "Inf"/"-Inf", so a −∞ dBm reading
// converts to mW 0 and reports StatusOK rather than StatusUnavailable.
func Convert(spec Spec, raw string) (value int64, status Status) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, StatusUnavailable
	}
	if spec.Converter != nil {
		f = spec.Converter(f)
	}
	f = f * math.Pow(10, float64(spec.Precision))
	switch {
	case f > RangeMax:
		f = RangeMax
	case f < RangeMin:
		f = RangeMin
	default:
		f = math.Round(f)
	}
	return int64(f), StatusOK
}
