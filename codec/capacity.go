package codec

// Byte capacities of a version 40 QR symbol in binary mode, one per
// error-correction level. Higher correction survives dirtier scans
// but leaves less room for the conversation.
const (
	CapacityL = 2953
	CapacityM = 2331
	CapacityQ = 1663
	CapacityH = 1273
)

// DefaultMaxBytes is the budget Encode uses when the caller does not
// pick a level: the largest symbol at the lowest correction level.
const DefaultMaxBytes = CapacityL

// CapacityForLevel maps a level name (l, m, q, h, any case) to its
// byte ceiling. Unknown names fall back to level L.
func CapacityForLevel(level string) int {
	switch level {
	case "m", "M":
		return CapacityM
	case "q", "Q":
		return CapacityQ
	case "h", "H":
		return CapacityH
	}
	return CapacityL
}
