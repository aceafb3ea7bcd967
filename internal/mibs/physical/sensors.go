package physical

import (
	"regexp"
	"sort"
)

// xcvrSensorAttrs is transceiver_sensor_data.py's sensor_attr_dict: for
// each DOM field name pattern, the display name, sub id offset base, sort
// factor and whether the field carries a lane number suffix.
var xcvrSensorAttrs = []struct {
	pattern    *regexp.Regexp
	name       string
	oidOffset  int
	sortFactor int
	laneBased  bool
}{
	{regexp.MustCompile(`^temperature$`), "Temperature", sensorTypeTemp, 0, false},
	{regexp.MustCompile(`^voltage$`), "Voltage", sensorTypeVoltage, 9000, false},
	{regexp.MustCompile(`^rx(\d+)power$`), "RX Power", sensorTypePortRxPower, 2000, true},
	{regexp.MustCompile(`^tx(\d+)power$`), "TX Power", sensorTypePortTxPower, 1000, true},
	{regexp.MustCompile(`^tx(\d+)bias$`), "TX Bias", sensorTypePortTxBias, 3000, true},
}

// xcvrSensor is one matched DOM sensor reading, equivalent to a
// TransceiverSensorData instance.
type xcvrSensor struct {
	field string
	value string
	name  string
	lane  int
	oidOffset  int
	sortFactor int
}

// createSensorData is TransceiverSensorData.create_sensor_data: match
// every field in the DOM hash against the known patterns, keeping field
// order insignificant since the result is sorted immediately after.
func createSensorData(dom map[string]string) []xcvrSensor {
	var out []xcvrSensor
	for field, value := range dom {
		for _, attrs := range xcvrSensorAttrs {
			m := attrs.pattern.FindStringSubmatch(field)
			if m == nil {
				continue
			}
			lane := 0
			if attrs.laneBased {
				lane = atoiOrZero(m[1])
			}
			out = append(out, xcvrSensor{
				field:      field,
				value:      value,
				name:       attrs.name,
				lane:       lane,
				oidOffset:  attrs.oidOffset + lane,
				sortFactor: attrs.sortFactor + lane,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].sortFactor < out[j].sortFactor })
	return out
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
