package physical

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
	"github.com/packetflux/agentx-subagent/internal/mibs/interfaces"
	"github.com/packetflux/agentx-subagent/internal/oid"
	"github.com/packetflux/agentx-subagent/internal/sensorconv"
	"github.com/packetflux/agentx-subagent/internal/updater"
)

const (
	appDB  = "APPL_DB"
	stateDB = "STATE_DB"
)

// PhysicalClass is RFC 2737's entPhysicalClass enumeration.
type PhysicalClass int32

const (
	ClassOther       PhysicalClass = 1
	ClassUnknown     PhysicalClass = 2
	ClassChassis     PhysicalClass = 3
	ClassBackplane   PhysicalClass = 4
	ClassContainer   PhysicalClass = 5
	ClassPowerSupply PhysicalClass = 6
	ClassFan         PhysicalClass = 7
	ClassSensor      PhysicalClass = 8
	ClassModule      PhysicalClass = 9
	ClassPort        PhysicalClass = 10
	ClassStack       PhysicalClass = 11
	ClassCPU         PhysicalClass = 12
)

const (
	fruReplaceable    = 1
	fruNotReplaceable = 2
)

// entity is one entPhysicalTable row plus, for sensor-class entities, the
// RFC 3433 reading it also publishes under entitySensorValueTable.
type entity struct {
	subID        int
	class        PhysicalClass
	descr        string
	name         string
	hwVersion    string
	serialNumber string
	mfgName      string
	modelName    string
	containedIn  int32
	parentRelPos int32
	fru          int32
	sensor       *sensorReading
}

type sensorReading struct {
	spec sensorconv.Spec
	raw  string
}

type snapshot struct {
	subs     []oid.OID
	entities map[int]entity
}

// Updater rebuilds the whole physical-entity tree every cycle from
// STATE_DB's *_INFO tables, matching PhysicalTableMIBUpdater's
// reinit_data/update_data except folded into one full rescan per cycle
// rather than an incremental pub/sub cache (the lldp module carries that
// pattern instead; this table's full scan already satisfies the same
// "evicted rows disappear next cycle" contract).
type Updater struct {
	ns   *dbstore.Namespace
	snap updater.Snapshot[snapshot]
}

func New(ns *dbstore.Namespace) *Updater {
	return &Updater{ns: ns}
}

func (u *Updater) Name() string { return "physical" }

func (u *Updater) Reinit(ctx context.Context) error { return nil }

func (u *Updater) Update(ctx context.Context) error {
	b := newBuilder()
	b.addChassis(ctx, u.ns)

	if err := b.addTransceivers(ctx, u.ns); err != nil {
		return err
	}
	if err := b.addPSUs(ctx, u.ns); err != nil {
		return err
	}
	if err := b.addFanDrawers(ctx, u.ns); err != nil {
		return err
	}
	if err := b.addFans(ctx, u.ns); err != nil {
		return err
	}
	if err := b.addThermals(ctx, u.ns); err != nil {
		return err
	}

	subs := make([]oid.OID, 0, len(b.entities))
	for subID := range b.entities {
		subs = append(subs, oid.OID{uint32(subID)})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Less(subs[j]) })
	u.snap.Store(snapshot{subs: subs, entities: b.entities})
	return nil
}

func (u *Updater) Close() error { return nil }

func (u *Updater) row(sub oid.OID) (entity, bool) {
	if len(sub) != 1 {
		return entity{}, false
	}
	s := u.snap.Load()
	e, ok := s.entities[int(sub[0])]
	return e, ok
}

func (u *Updater) keys() []oid.OID { return u.snap.Load().subs }

// sensorKeys restricts keys() to entities carrying an RFC 3433 reading.
func (u *Updater) sensorKeys() []oid.OID {
	s := u.snap.Load()
	out := make([]oid.OID, 0, len(s.subs))
	for _, sub := range s.subs {
		if e, ok := s.entities[int(sub[0])]; ok && e.sensor != nil {
			out = append(out, sub)
		}
	}
	return out
}

// builder accumulates one update cycle's entity set, resolving
// entContainedIn by parent name through a pending-callback queue for
// entities whose parent hasn't been registered yet in this pass, grounded
// on PhysicalTableMIBUpdater.pending_resolve_parent_name_map /
// add_pending_entity_name_callback / update_name_to_oid_map.
type builder struct {
	entities map[int]entity
	nameOID  map[string]int
	pending  map[string][]func()
}

func newBuilder() *builder {
	return &builder{
		entities: make(map[int]entity),
		nameOID:  make(map[string]int),
		pending:  make(map[string][]func()),
	}
}

func (b *builder) put(e entity) { b.entities[e.subID] = e }

func (b *builder) registerName(name string, subID int) {
	b.nameOID[name] = subID
	if cbs, ok := b.pending[name]; ok {
		delete(b.pending, name)
		for _, cb := range cbs {
			cb()
		}
	}
}

func (b *builder) whenResolved(name string, fn func(parentSubID int)) {
	if subID, ok := b.nameOID[name]; ok {
		fn(subID)
		return
	}
	b.pending[name] = append(b.pending[name], func() { fn(b.nameOID[name]) })
}

func (b *builder) setContainedIn(subID int, parentName string) {
	b.whenResolved(parentName, func(parentSubID int) {
		e := b.entities[subID]
		e.containedIn = int32(parentSubID)
		b.entities[subID] = e
	})
}

func fruOf(replaceable string) int32 {
	if strings.EqualFold(replaceable, "true") {
		return fruReplaceable
	}
	return fruNotReplaceable
}

func isNull(v string) bool { return v == "" || v == "N/A" || v == "None" }

// addChassis seeds entPhysicalIndex 1 (the chassis) and its synthetic
// management/CPU sub-entity, matching reinit_data's unconditional chassis
// bootstrap before any *_INFO table is scanned.
func (b *builder) addChassis(ctx context.Context, ns *dbstore.Namespace) {
	serial := ""
	if md, err := ns.GetAll(ctx, stateDB, "DEVICE_METADATA|localhost"); err == nil {
		serial = md["chassis_serial_number"]
	}
	b.put(entity{
		subID:        chassisSubID,
		class:        ClassChassis,
		descr:        "chassis 1",
		name:         "chassis 1",
		serialNumber: serial,
		containedIn:  0,
		fru:          fruNotReplaceable,
	})
	b.registerName("chassis 1", chassisSubID)

	b.put(entity{
		subID:        chassisMgmtSubID,
		class:        ClassCPU,
		descr:        "MGMT",
		name:         "MGMT",
		containedIn:  chassisSubID,
		parentRelPos: 1,
		fru:          fruNotReplaceable,
	})
}

func relationInfo(ctx context.Context, ns *dbstore.Namespace, name string) (position int, parentName string, ok bool) {
	fields, err := ns.GetAll(ctx, stateDB, "PHYSICAL_ENTITY_INFO|"+name)
	if err != nil || len(fields) == 0 {
		return 0, "", false
	}
	pos, _ := strconv.Atoi(fields["position_in_parent"])
	return pos, fields["parent_name"], true
}

// addTransceivers ports XcvrCacheUpdater._update_entity_cache: one PORT
// entity per TRANSCEIVER_INFO row, always parented directly to the
// chassis with parentRelPos -1 (RFC 2737's "cannot determine position"),
// plus its DOM sensor sub-entities.
func (b *builder) addTransceivers(ctx context.Context, ns *dbstore.Namespace) error {
	keys, err := ns.Keys(ctx, stateDB, "TRANSCEIVER_INFO|*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		port := strings.TrimPrefix(key, "TRANSCEIVER_INFO|")
		ifIndex, ok := interfaces.IfIndex(port)
		if !ok {
			continue
		}
		info, err := ns.GetAll(ctx, stateDB, key)
		if err != nil || len(info) == 0 {
			continue
		}
		alias := port
		if portFields, err := ns.GetAll(ctx, appDB, "PORT_TABLE:"+port); err == nil {
			if a := portFields["alias"]; a != "" {
				alias = a
			}
		}

		subID := getTransceiverSubID(ifIndex)
		descr := transceiverDescription(info["type"], alias)
		b.put(entity{
			subID:        subID,
			class:        ClassPort,
			descr:        descr,
			name:         port,
			hwVersion:    info["hardware_rev"],
			serialNumber: info["serial"],
			mfgName:      info["manufacturer"],
			modelName:    info["model"],
			containedIn:  chassisSubID,
			parentRelPos: -1,
			fru:          fruOf(info["is_replaceable"]),
		})

		b.addTransceiverSensors(ctx, ns, key, port, ifIndex, subID, alias)
	}
	return nil
}

func transceiverDescription(sfpType, ifAlias string) string {
	if ifAlias == "" {
		return sfpType
	}
	return sfpType + " for " + ifAlias
}

func (b *builder) addTransceiverSensors(ctx context.Context, ns *dbstore.Namespace, infoKey, port string, ifIndex, parentSubID int, alias string) {
	dom, err := ns.GetAll(ctx, stateDB, "TRANSCEIVER_DOM_SENSOR|"+port)
	if err != nil || len(dom) == 0 {
		return
	}
	sensors := createSensorData(dom)
	for i, s := range sensors {
		subID := getTransceiverSensorSubID(ifIndex, s.oidOffset)
		b.put(entity{
			subID:        subID,
			class:        ClassSensor,
			descr:        transceiverSensorDescription(s.name, s.lane, alias),
			name:         transceiverSensorDescription(s.name, s.lane, alias),
			containedIn:  int32(parentSubID),
			parentRelPos: int32(i + 1),
			fru:          fruNotReplaceable,
			sensor:       &sensorReading{spec: xcvrSensorSpec(s.name), raw: s.value},
		})
	}
}

func transceiverSensorDescription(name string, lane int, ifAlias string) string {
	port := ifAlias
	if lane != 0 {
		port = ifAlias + "/" + strconv.Itoa(lane)
	}
	return "DOM " + name + " Sensor for " + port
}

func xcvrSensorSpec(name string) sensorconv.Spec {
	switch name {
	case "Temperature":
		return sensorconv.XcvrTemperature
	case "Voltage":
		return sensorconv.XcvrVoltage
	case "RX Power":
		return sensorconv.XcvrRxPower
	case "TX Power":
		return sensorconv.XcvrTxPower
	case "TX Bias":
		return sensorconv.XcvrTxBias
	default:
		return sensorconv.Spec{Type: sensorconv.Unknown, Scale: sensorconv.Units}
	}
}

// addPSUs ports PsuCacheUpdater._update_entity_cache.
func (b *builder) addPSUs(ctx context.Context, ns *dbstore.Namespace) error {
	keys, err := ns.Keys(ctx, stateDB, "PSU_INFO|*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		name := strings.TrimPrefix(key, "PSU_INFO|")
		info, err := ns.GetAll(ctx, stateDB, key)
		if err != nil || len(info) == 0 {
			continue
		}
		if !strings.EqualFold(info["presence"], "true") {
			continue
		}
		position, parentName, ok := relationInfo(ctx, ns, name)
		if !ok {
			continue
		}
		subID := getPSUSubID(position)
		b.registerName(name, subID)

		e := entity{
			subID:        subID,
			class:        ClassPowerSupply,
			descr:        name,
			name:         name,
			parentRelPos: int32(position),
			fru:          fruOf(info["is_replaceable"]),
		}
		if !isNull(info["model"]) {
			e.modelName = info["model"]
		}
		if !isNull(info["serial"]) {
			e.serialNumber = info["serial"]
		}
		b.put(e)
		b.setContainedIn(subID, parentName)

		for _, s := range []string{"current", "power", "temperature", "voltage"} {
			if v := info[psuField(s)]; v != "" && !isNull(v) {
				b.addPSUSensor(name, subID, s, v)
			}
		}
	}
	return nil
}

func psuField(sensor string) string {
	if sensor == "temperature" {
		return "temp"
	}
	return sensor
}

var psuSensorSpec = map[string]sensorconv.Spec{
	"current":     sensorconv.PSUCurrent,
	"power":       sensorconv.PSUPower,
	"temperature": sensorconv.PSUTemperature,
	"voltage":     sensorconv.PSUVoltage,
}

var psuSensorName = map[string]string{
	"current":     "Current",
	"power":       "Power",
	"temperature": "Temperature",
	"voltage":     "Voltage",
}

func (b *builder) addPSUSensor(psuName string, psuSubID int, sensor, raw string) {
	subID := getPSUSensorSubID(psuSubID, sensor)
	off := psuSensorOffset[sensor]
	b.put(entity{
		subID:        subID,
		class:        ClassSensor,
		descr:        psuSensorName[sensor] + " for " + psuName,
		name:         psuSensorName[sensor] + " for " + psuName,
		containedIn:  int32(psuSubID),
		parentRelPos: int32(off.pos),
		fru:          fruNotReplaceable,
		sensor:       &sensorReading{spec: psuSensorSpec[sensor], raw: raw},
	})
}

// addFanDrawers ports FanDrawerCacheUpdater._update_entity_cache.
func (b *builder) addFanDrawers(ctx context.Context, ns *dbstore.Namespace) error {
	keys, err := ns.Keys(ctx, stateDB, "FAN_DRAWER_INFO|*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		name := strings.TrimPrefix(key, "FAN_DRAWER_INFO|")
		info, err := ns.GetAll(ctx, stateDB, key)
		if err != nil || len(info) == 0 {
			continue
		}
		if !strings.EqualFold(info["presence"], "true") {
			continue
		}
		position, parentName, ok := relationInfo(ctx, ns, name)
		if !ok {
			continue
		}
		subID := getFanDrawerSubID(position)
		b.registerName(name, subID)

		e := entity{
			subID:        subID,
			class:        ClassContainer,
			descr:        name,
			name:         name,
			parentRelPos: int32(position),
			fru:          fruOf(info["is_replaceable"]),
		}
		if !isNull(info["model"]) {
			e.modelName = info["model"]
		}
		if !isNull(info["serial"]) {
			e.serialNumber = info["serial"]
		}
		b.put(e)
		b.setContainedIn(subID, parentName)
	}
	return nil
}

// addFans ports FanCacheUpdater._update_entity_cache /
// _update_fan_mib_info: a fan whose parent drawer name is not yet known
// registers a pending callback instead of being dropped, the same
// deferred-resolution mechanism setContainedIn uses for named parents.
func (b *builder) addFans(ctx context.Context, ns *dbstore.Namespace) error {
	keys, err := ns.Keys(ctx, stateDB, "FAN_INFO|*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		name := strings.TrimPrefix(key, "FAN_INFO|")
		info, err := ns.GetAll(ctx, stateDB, key)
		if err != nil || len(info) == 0 {
			continue
		}
		if !strings.EqualFold(info["presence"], "true") {
			continue
		}
		position, parentName, ok := relationInfo(ctx, ns, name)
		if !ok {
			continue
		}
		b.whenResolved(parentName, func(parentSubID int) {
			b.addFan(name, parentSubID, position, info)
		})
	}
	return nil
}

func (b *builder) addFan(name string, parentSubID, position int, info map[string]string) {
	subID := getFanSubID(parentSubID, position)
	e := entity{
		subID:        subID,
		class:        ClassFan,
		descr:        name,
		name:         name,
		containedIn:  int32(parentSubID),
		parentRelPos: int32(position),
		fru:          fruOf(info["is_replaceable"]),
	}
	if !isNull(info["model"]) {
		e.modelName = info["model"]
	}
	if !isNull(info["serial"]) {
		e.serialNumber = info["serial"]
	}
	b.put(e)

	if speed := info["speed"]; speed != "" && !isNull(speed) {
		tachSubID := getFanTachometersSubID(subID)
		b.put(entity{
			subID:        tachSubID,
			class:        ClassSensor,
			descr:        "Tachometers for " + name,
			name:         "Tachometers for " + name,
			containedIn:  int32(subID),
			parentRelPos: 1,
			fru:          fruNotReplaceable,
			sensor:       &sensorReading{spec: sensorconv.FanSpeed, raw: speed},
		})
	}
}

// addThermals ports ThermalCacheUpdater._update_entity_cache: only
// chassis-parented thermals are handled here; a thermal parented to a
// PSU or other entity is that entity's own concern (none of the pack's
// STATE_DB schemas attach a THERMAL_INFO row to anything but the chassis
// today, so only the chassis branch is wired).
func (b *builder) addThermals(ctx context.Context, ns *dbstore.Namespace) error {
	keys, err := ns.Keys(ctx, stateDB, "TEMPERATURE_INFO|*")
	if err != nil {
		return err
	}
	for _, key := range keys {
		name := strings.TrimPrefix(key, "TEMPERATURE_INFO|")
		info, err := ns.GetAll(ctx, stateDB, key)
		if err != nil || len(info) == 0 {
			continue
		}
		temp := info["temperature"]
		if temp == "" || isNull(temp) {
			continue
		}
		position, parentName, ok := relationInfo(ctx, ns, name)
		if !ok {
			continue
		}
		parentSubID, known := b.nameOID[parentName]
		if !known || parentSubID != chassisSubID {
			continue
		}
		subID := getChassisThermalSubID(position)
		b.put(entity{
			subID:        subID,
			class:        ClassSensor,
			descr:        name,
			name:         name,
			containedIn:  chassisMgmtSubID,
			parentRelPos: int32(position),
			fru:          fruOf(info["is_replaceable"]),
			sensor:       &sensorReading{spec: sensorconv.ChassisThermal, raw: temp},
		})
	}
	return nil
}
