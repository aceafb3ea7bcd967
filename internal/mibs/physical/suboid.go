// Package physical implements the RFC 2737 entPhysicalTable and its RFC
// 3433 sensor sub-entities, grounded on
// original_source/src/sonic_ax_impl/mibs/ietf/rfc2737.py,
// physical_entity_sub_oid_generator.py and transceiver_sensor_data.py.
package physical

// Module/device/sensor type constants from
// physical_entity_sub_oid_generator.py, used to lay out entPhysicalIndex
// so that every physical entity's sub id can be computed independently
// from its kind and position, without a central allocator.
const (
	moduleTypeMgmt      = 200000000
	moduleTypeFanDrawer = 500000000
	moduleTypePSU       = 600000000
	moduleTypePort      = 1000000000

	moduleIndexMultiple = 1000000

	deviceTypePS             = 10000
	deviceTypeFan            = 20000
	deviceTypePowerMonitor   = 240000
	deviceTypeChassisThermal = 990000

	sensorTypeTemp        = 10
	sensorTypePortTxPower = 20
	sensorTypeFan         = 20
	sensorTypePortRxPower = 30
	sensorTypePower       = 30
	sensorTypePortTxBias  = 40
	sensorTypeCurrent     = 40
	sensorTypeVoltage     = 50

	portIfIndexMultiple = 100
	deviceIndexMultiple = 100

	// chassisSubID is entPhysicalIndex 1, the chassis itself.
	chassisSubID = 1
	// chassisMgmtSubID is the synthetic CPU/management sub-entity hung
	// directly off the chassis.
	chassisMgmtSubID = moduleTypeMgmt
)

// psuSensorOffset maps a PsuInfoDB sensor field name to its RFC 3433 sub
// id offset and 1-based parent-relative position, grounded on
// PSU_SENSOR_POSITION_MAP.
var psuSensorOffset = map[string]struct {
	offset int
	pos    int
}{
	"temperature": {sensorTypeTemp, 1},
	"power":       {sensorTypePower, 2},
	"current":     {sensorTypeCurrent, 3},
	"voltage":     {sensorTypeVoltage, 4},
}

// getChassisThermalSubID is get_chassis_thermal_sub_id: a chassis-parented
// thermal sensor, positioned directly under the chassis mgmt node.
func getChassisThermalSubID(position int) int {
	return chassisMgmtSubID + deviceTypeChassisThermal + position*deviceIndexMultiple + sensorTypeTemp
}

// getFanDrawerSubID is get_fan_drawer_sub_id.
func getFanDrawerSubID(position int) int {
	return moduleTypeFanDrawer + position*moduleIndexMultiple
}

// getFanSubID is get_fan_sub_id. A chassis-parented fan (no real fan
// drawer in the system) synthesizes a virtual fan-drawer id from its own
// position so every fan still nests under a module-typed parent.
func getFanSubID(parentSubID int, position int) int {
	parent := parentSubID
	if parentSubID == chassisSubID {
		parent = moduleTypeFanDrawer + position*moduleIndexMultiple
	}
	return parent + deviceTypeFan + position*deviceIndexMultiple
}

// getFanTachometersSubID is get_fan_tachometers_sub_id.
func getFanTachometersSubID(fanSubID int) int {
	return fanSubID + sensorTypeFan
}

// getPSUSubID is get_psu_sub_id.
func getPSUSubID(position int) int {
	return moduleTypePSU + position*moduleIndexMultiple
}

// getPSUSensorSubID is get_psu_sensor_sub_id.
func getPSUSensorSubID(psuSubID int, sensor string) int {
	off, ok := psuSensorOffset[sensor]
	if !ok {
		return psuSubID
	}
	return psuSubID + deviceTypePowerMonitor + off.offset
}

// getTransceiverSubID is get_transceiver_sub_id.
func getTransceiverSubID(ifIndex int) int {
	return moduleTypePort + ifIndex*portIfIndexMultiple
}

// getTransceiverSensorSubID is get_transceiver_sensor_sub_id.
func getTransceiverSensorSubID(ifIndex, oidOffset int) int {
	return getTransceiverSubID(ifIndex) + oidOffset
}
