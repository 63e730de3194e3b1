package logic

// Digit range accepted from the wire.
const (
	digitFirst = '0'
	digitLast  = '7'
)

// patternBits masks a Pattern down to its three actuator bits.
const patternBits = 0x07

// Decode scans buf from the last byte toward the first and returns the
// command for the first ASCII digit '0'..'7' it meets, so the digit closest
// to the end of the buffer wins. ok is false when the buffer holds no such
// digit, including when it is empty; that is a no-op, not an error.
func Decode(buf []byte) (Command, bool) {
	for i := len(buf) - 1; i >= 0; i-- {
		c := buf[i]
		if c >= digitFirst && c <= digitLast {
			d := int(c - digitFirst)
			return Command{Digit: d, Pattern: PatternFor(d)}, true
		}
	}
	return Command{}, false
}

// PatternFor converts a digit 0..7 into the raw active-low line pattern.
// Digit 7 yields 0b000: all three lines driven low, all LEDs lit.
func PatternFor(d int) Pattern {
	return Pattern(^d & patternBits)
}
