package sunspec

// SunSpec operating states written to the inverter block.
const (
	StatusOff       = 2 // sleeping, outside of daylight
	StatusStarting  = 3 // some inverters are reachable but not all of them are producing
	StatusMPPT      = 4 // all enabled inverters are producing
	StatusThrottled = 5
	StatusStandby   = 8 // nothing is reachable
)

// ClassifyStatus derives the operating state from the daylight window, the fleet state and the throttle flag. The
// conditions are checked in priority order and exactly one state is returned.
func ClassifyStatus(daylight, allProducing, atLeastOneReachable, throttled bool) uint16 {
	switch {
	case !daylight:
		return StatusOff
	case allProducing && throttled:
		return StatusThrottled
	case allProducing:
		return StatusMPPT
	case atLeastOneReachable:
		return StatusStarting
	default:
		return StatusStandby
	}
}
