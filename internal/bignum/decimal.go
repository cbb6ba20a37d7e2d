package bignum

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Printer converts a magnitude to its decimal representation.
//
// Implementations never emit leading zeros and render zero as "0". They do
// not modify the magnitude.
type Printer interface {
	// Print returns the decimal digits of m.
	Print(m *Magnitude) (string, error)
	// Name returns the identifier used to select the printer.
	Name() string
}

// DoublingPrinter renders a magnitude by replaying its bits into a decimal
// digit buffer: for every bit from the most significant down, the buffer is
// doubled and the bit added. It costs O(bits × digits) and shares no code
// with ChunkPrinter, which makes it a useful independent check.
type DoublingPrinter struct{}

// Name returns "doubling".
func (DoublingPrinter) Name() string { return "doubling" }

// Print implements Printer.
func (DoublingPrinter) Print(m *Magnitude) (string, error) {
	if m.IsZero() {
		return "0", nil
	}
	nbits := m.BitLen()
	// log10(2) < 1/3, so bits/3 + 2 digits always suffice.
	digits := make([]byte, nbits/3+2)

	for i := nbits - 1; i >= 0; i-- {
		carry := byte(m.words[i/_W] >> (uint(i) % _W) & 1)
		for d := len(digits) - 1; d >= 0; d-- {
			v := digits[d]<<1 + carry
			carry = 0
			if v >= 10 {
				v -= 10
				carry = 1
			}
			digits[d] = v
		}
	}

	start := 0
	for start < len(digits)-1 && digits[start] == 0 {
		start++
	}
	out := digits[start:]
	for i := range out {
		out[i] += '0'
	}
	return string(out), nil
}

// ChunkPrinter renders a magnitude by repeated division by 10^9 on a
// scratch copy. Each pass yields the next nine low-order digits; the digits
// of a chunk are extracted with reciprocal multiplications instead of
// divisions. It is the default printer.
type ChunkPrinter struct{}

const (
	chunkBase   = 1_000_000_000
	chunkDigits = 9

	// x/10 == x*div10Magic >> div10Shift for every uint32 x.
	div10Magic = 0xCCCCCCCD
	div10Shift = 35

	// x/10000 == x*div1e4Magic >> div1e4Shift for every uint32 x.
	div1e4Magic = 0xD1B71759
	div1e4Shift = 45
)

// Name returns "chunk".
func (ChunkPrinter) Name() string { return "chunk" }

// Print implements Printer.
func (ChunkPrinter) Print(m *Magnitude) (string, error) {
	n := len(m.words)
	if n == 0 {
		return "0", nil
	}
	alloc := m.allocator()
	w, err := alloc.Alloc(n)
	if err != nil {
		return "", err
	}
	defer alloc.Release(w)
	copy(w, m.words)

	// A word holds fewer than 9.64 decimal digits, and every pass emits a
	// full chunk, so 10n+9 bytes bound the output.
	buf := make([]byte, 10*n+chunkDigits)
	pos := len(buf)
	for sig := n; sig > 0; {
		var r uint32
		for i := sig - 1; i >= 0; i-- {
			w[i], r = bits.Div32(r, w[i], chunkBase)
		}
		for sig > 0 && w[sig-1] == 0 {
			sig--
		}
		pos -= chunkDigits
		putChunk(buf[pos:pos+chunkDigits], r)
	}

	for pos < len(buf)-1 && buf[pos] == '0' {
		pos++
	}
	return string(buf[pos:]), nil
}

// putChunk writes r < 10^9 as exactly nine ASCII digits into dst.
func putChunk(dst []byte, r uint32) {
	hi := uint32(uint64(r) * div1e4Magic >> div1e4Shift)
	lo := r - hi*10000
	for i := chunkDigits - 1; i >= 5; i-- {
		q := div10(lo)
		dst[i] = byte('0' + lo - q*10)
		lo = q
	}
	for i := 4; i >= 0; i-- {
		q := div10(hi)
		dst[i] = byte('0' + hi - q*10)
		hi = q
	}
}

func div10(x uint32) uint32 {
	return uint32(uint64(x) * div10Magic >> div10Shift)
}

var printers = map[string]Printer{
	ChunkPrinter{}.Name():    ChunkPrinter{},
	DoublingPrinter{}.Name(): DoublingPrinter{},
}

// PrinterByName returns the printer registered under name.
//
// Parameters:
//   - name: "chunk" or "doubling".
//
// Returns:
//   - Printer: The printer.
//   - error: ErrInvalidArgument (wrapped) for an unknown name.
func PrinterByName(name string) (Printer, error) {
	p, ok := printers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown printer %q (available: %s)",
			ErrInvalidArgument, name, strings.Join(PrinterNames(), ", "))
	}
	return p, nil
}

// PrinterNames lists the registered printers in sorted order.
func PrinterNames() []string {
	names := make([]string, 0, len(printers))
	for name := range printers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns the decimal representation of m using ChunkPrinter.
func (m *Magnitude) String() string {
	if m == nil {
		return "<nil>"
	}
	s, err := ChunkPrinter{}.Print(m)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return s
}

// Text16 returns the lowercase hexadecimal representation of m without a
// prefix.
func (m *Magnitude) Text16() string {
	n := len(m.words)
	if n == 0 {
		return "0"
	}
	var sb strings.Builder
	sb.Grow(n * 8)
	fmt.Fprintf(&sb, "%x", m.words[n-1])
	for i := n - 2; i >= 0; i-- {
		fmt.Fprintf(&sb, "%08x", m.words[i])
	}
	return sb.String()
}
