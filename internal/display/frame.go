package display

// Matrix geometry.
const (
	Width  = 12
	Height = 8
)

// Frame is a 12x8 monochrome image packed row-major into three words, most
// significant bit first: pixel (x, y) is bit 31-(n%32) of word n/32 where
// n = y*12+x.
type Frame [3]uint32

// Set lights (x, y). Out-of-range coordinates are ignored.
func (f *Frame) Set(x, y int) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	n := y*Width + x
	f[n/32] |= 1 << (31 - n%32)
}

// Lit reports whether (x, y) is set.
func (f Frame) Lit(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	n := y*Width + x
	return f[n/32]&(1<<(31-n%32)) != 0
}

// Count returns the number of lit pixels.
func (f Frame) Count() int {
	c := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if f.Lit(x, y) {
				c++
			}
		}
	}
	return c
}

func (f *Frame) block(x, y, size int) {
	for dx := 0; dx < size; dx++ {
		for dy := 0; dy < size; dy++ {
			f.Set(x+dx, y+dy)
		}
	}
}

// digitGlyphs are 3x4 digits, one 3-bit row per entry, leftmost pixel in
// the high bit.
var digitGlyphs = [10][4]uint8{
	{0b111, 0b101, 0b101, 0b111},
	{0b110, 0b010, 0b010, 0b111},
	{0b111, 0b001, 0b111, 0b111},
	{0b111, 0b011, 0b001, 0b111},
	{0b101, 0b101, 0b111, 0b001},
	{0b111, 0b110, 0b001, 0b111},
	{0b111, 0b110, 0b101, 0b111},
	{0b111, 0b001, 0b001, 0b001},
	{0b111, 0b101, 0b111, 0b111},
	{0b111, 0b101, 0b011, 0b111},
}

func (f *Frame) digit(x, y, d int) {
	if d < 0 || d > 9 {
		return
	}
	for row, bits := range digitGlyphs[d] {
		for col := 0; col < 3; col++ {
			if bits&(1<<(2-col)) != 0 {
				f.Set(x+col, y+row)
			}
		}
	}
}

// Status is what the status layout shows.
type Status struct {
	Night         bool
	DoorClosed    bool
	ButtonLatched bool
	LightOn       bool
	DoorPulse     bool
	Connected     bool
}

// StatusFrame lays out inputs as 2x2 blocks on the top rows, outputs as
// 3x3 blocks on the bottom rows and the network bar in the two rightmost
// columns.
func StatusFrame(s Status) Frame {
	var f Frame
	if s.Night {
		f.block(0, 0, 2)
	}
	if s.DoorClosed {
		f.block(3, 0, 2)
	}
	if s.ButtonLatched {
		f.block(6, 0, 2)
	}
	if s.LightOn {
		f.block(0, 4, 3)
	}
	if s.DoorPulse {
		f.block(4, 4, 3)
	}
	if s.Connected {
		f.block(10, 0, 2)
		f.block(10, 3, 2)
		f.block(10, 5, 2)
		f.Set(10, 7)
		f.Set(11, 7)
	}
	return f
}

// AddressFrame draws octet as up to three centred digits without leading
// zeros.
func AddressFrame(octet uint8) Frame {
	var f Frame
	hundreds := int(octet) / 100
	tens := int(octet) / 10 % 10
	ones := int(octet) % 10

	digits := 1
	switch {
	case hundreds > 0:
		digits = 3
	case tens > 0:
		digits = 2
	}
	width := digits*3 + digits - 1
	x := (Width - width) / 2
	const y = 2

	if hundreds > 0 {
		f.digit(x, y, hundreds)
		x += 4
	}
	if hundreds > 0 || tens > 0 {
		f.digit(x, y, tens)
		x += 4
	}
	f.digit(x, y, ones)
	return f
}
