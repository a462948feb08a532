package esprunner

// completionPolicy decides when output collection for a dispatched command
// ends. An empty marker set with longRunning false is the default for
// unknown commands: quiet-period heuristic bounded by the hard ceiling.
type completionPolicy struct {
	markers     []string
	longRunning bool
}

// Terminal markers for mode 1 (programmer command set), keyed by the
// command's leading character. Kept as plain data so the tables are testable
// and extensible without touching dispatch logic.
var mode1Markers = map[byte][]string{
	'e': {"Erase OK", "Erase FAIL"},
	'w': {"Write OK", "Write FAIL"},
	'v': {"Verify OK", "Verify FAIL"},
	's': {"Consume serial OK:", "Consume serial FAIL"},
	// Wait for the full output of both sections; stopping at the section
	// header would truncate output mid-command.
	'l': {"--- END /serial_consumed.bin ---", "Log open FAIL"},
	'a': {"WiFi mode:", "WiFi AP IP:", "WiFi AP enabled:"},
	'R': {"Pulsing NRST LOW", "Prep OK", "Prep FAIL"},
	'S': {"Set serial OK:", "Set serial FAIL", "Set serial:"},
	' ': {"PRODUCTION sequence SUCCESS", "Production sequence aborted", "ERROR: Production sequence aborted"},
	'F': {"Firmware file selection OK", "Firmware file selection FAIL"},
	'f': {"Filesystem status:"},
	'i': {"DP IDCODE:", "DP IDCODE read failed"},
	'u': {"Upgrade OK", "Upgrade FAIL", "Servomotor upgrade OK"},
	'p': {"Servomotor GET_PRODUCT_INFO response:", "ERROR: getProductInfo"},
}

// Terminal markers for mode 2 (RS485 testing command set).
var mode2Markers = map[byte][]string{
	'p': {"Servomotor GET_COMPREHENSIVE_POSITION response", "ERROR: getComprehensivePosition", "ERROR: DUT unique_id not known"},
	'P': {"Servomotor GET_COMPREHENSIVE_POSITION response", "ERROR: getComprehensivePosition(ref)"},
	'i': {"Servomotor GET_PRODUCT_INFO response:", "ERROR: getProductInfo", "ERROR: DUT unique_id not known"},
	'e': {"[Motor] enableMosfets called.", "ERROR: enableMosfets", "ERROR: DUT unique_id not known"},
	'd': {"[Motor] disableMosfets called.", "ERROR: disableMosfets", "ERROR: DUT unique_id not known"},
	't': {"[Motor] trapezoidMove", "ERROR: trapezoidMove", "ERROR: DUT unique_id not known"},
	'R': {"[Motor] systemReset called.", "ERROR: systemReset", "ERROR: DUT unique_id not known"},
	's': {"Mode2 getStatus OK", "Mode2 getStatus FAIL", "ERROR: getStatus", "ERROR: DUT unique_id not known"},
	'v': {"Mode2 getSupplyVoltage OK", "Mode2 getSupplyVoltage FAIL", "ERROR: getSupplyVoltage", "ERROR: DUT unique_id not known"},
	'c': {"Mode2 getTemperature OK", "Mode2 getTemperature FAIL", "ERROR: getTemperature", "ERROR: DUT unique_id not known"},
	'D': {"Detect devices:", "ERROR: detectDevices"},
}

// Commands with legitimately silent multi-second phases (flash erase, write,
// verify, firmware upgrade, the production sequence). These never exit on
// the quiet heuristic; only a marker or the hard ceiling stops them.
var mode1LongRunning = map[byte]bool{
	'e': true, 'w': true, 'v': true, ' ': true, 'u': true,
}

var mode2LongRunning = map[byte]bool{
	'u': true, 'p': true, 'P': true, 'i': true, 'e': true, 'd': true,
	't': true, 'R': true, 's': true, 'v': true, 'c': true, 'D': true,
}

// policyFor looks up the completion policy for a (mode, command) pair.
func policyFor(mode int, cmd Command) completionPolicy {
	if len(cmd) == 0 {
		return completionPolicy{}
	}
	lead := cmd[0]
	if mode == 2 {
		return completionPolicy{markers: mode2Markers[lead], longRunning: mode2LongRunning[lead]}
	}
	return completionPolicy{markers: mode1Markers[lead], longRunning: mode1LongRunning[lead]}
}
