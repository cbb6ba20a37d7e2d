package bench

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Report is a bench run together with the settings that produced it.
type Report struct {
	Space    Space  `json:"space" msgpack:"space"`
	Method   int    `json:"method" msgpack:"method"`
	Samples  int    `json:"samples" msgpack:"samples"`
	Platform string `json:"platform" msgpack:"platform"`
	Rows     []Row  `json:"rows" msgpack:"rows"`
}

// Encoder writes a report in one output format.
type Encoder interface {
	Encode(w io.Writer, rep *Report) error
}

// TextEncoder writes one "index time" line per row with the device
// trimmed mean, the format plotted by gnuplot scripts. With Wall set, the
// wall trimmed mean and the overhead follow as extra columns.
type TextEncoder struct {
	Wall bool
}

// Encode implements Encoder.
func (e TextEncoder) Encode(w io.Writer, rep *Report) error {
	bw := bufio.NewWriter(w)
	for _, row := range rep.Rows {
		fmt.Fprintf(bw, "%d %.5f", row.Index, row.Device.TrimmedMean)
		if e.Wall {
			fmt.Fprintf(bw, " %.5f %.5f", row.Wall.TrimmedMean, row.Overhead)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// JSONEncoder writes the report as indented JSON.
type JSONEncoder struct{}

// Encode implements Encoder.
func (JSONEncoder) Encode(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// MsgpackEncoder writes the report as MessagePack.
type MsgpackEncoder struct{}

// Encode implements Encoder.
func (MsgpackEncoder) Encode(w io.Writer, rep *Report) error {
	return msgpack.NewEncoder(w).Encode(rep)
}

// DecodeMsgpack reads a report written by MsgpackEncoder.
func DecodeMsgpack(r io.Reader) (*Report, error) {
	var rep Report
	if err := msgpack.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decoding bench report: %w", err)
	}
	return &rep, nil
}

var encoders = map[string]Encoder{
	"text":      TextEncoder{},
	"text-wall": TextEncoder{Wall: true},
	"json":      JSONEncoder{},
	"msgpack":   MsgpackEncoder{},
}

// EncoderByName returns the encoder for a format name.
func EncoderByName(name string) (Encoder, error) {
	e, ok := encoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown bench format %q", name)
	}
	return e, nil
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
