package ascii

// Ramp is an ordered set of characters approximating luminance from darkest
// to lightest. Mapping is a pure integer bucket lookup so parallel workers
// produce bit-identical output to a sequential run.
type Ramp string

// DefaultRamp is the classic ten-step gradient.
const DefaultRamp = Ramp("@%#*+=-:. ")

// Glyph maps a luminance sample in [0,255] to a ramp character.
func (r Ramp) Glyph(sample uint8) byte {
	idx := int(sample) / (256 / len(r))
	if idx > len(r)-1 {
		idx = len(r) - 1
	}
	return r[idx]
}

// Lightest returns the character used for fully lit samples, which doubles as
// the padding character for short rows.
func (r Ramp) Lightest() byte {
	return r[len(r)-1]
}
