// Package wcp imports WinWCP electrophysiology recordings.
//
// A file is an ASCII KEY=VALUE header padded to NBH bytes, followed by NR
// records. Each record is NBA blocks of analysis data and NBD blocks of
// interleaved little-endian int16 samples; blocks are 512 bytes.
package wcp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/formats"
)

// Key is the registry key of the importer.
const Key = "wcp"

// BlockSize is the unit of NBA and NBD.
const BlockSize = 512

// maxRecordBlocks bounds NBA+NBD so that record offsets stay in range.
const maxRecordBlocks = math.MaxInt32 / BlockSize

// Importer reads WinWCP data files.
type Importer struct{}

// Register adds the WinWCP importer to r.
func Register(r *formats.Registry) error {
	return r.RegisterImporter(Importer{})
}

// Descriptor implements formats.Importer.
func (Importer) Descriptor() core.Descriptor {
	return core.Descriptor{Key: Key, Label: "WinWCP recording", Caps: core.CapTimeSeries}
}

// Extensions implements formats.Importer.
func (Importer) Extensions() []string {
	return []string{".dat", ".wcp"}
}

// field is one header entry and the byte offset of its value.
type field struct {
	value  string
	offset int64
}

// Header is the decoded file header.
type Header struct {
	Channels    int // NC
	Records     int // NR
	HeaderBytes int // NBH
	Analysis    int // NBA, in blocks
	Data        int // NBD, in blocks
	Samples     int // NP, per channel and record
	Interval    float64
	ADCMax      int
	ID          string
	Version     string
	Channel     []ChannelInfo
}

// ChannelInfo holds the per-channel calibration.
type ChannelInfo struct {
	Name     string
	Unit     string
	Gain     float64
	Position int
	Factor   float64
}

// analysisBlock is the fixed part of a record's analysis area; the
// per-channel maximum voltages follow it.
type analysisBlock struct {
	Status [8]byte
	Type   [4]byte
	Group  float32
	Time   float32
	DT     float32
}

var analysisSize = binary.Size(analysisBlock{})

type headerReader struct {
	fields map[string]field
	end    int64
}

func readFields(data []byte) *headerReader {
	h := &headerReader{fields: make(map[string]field)}
	text := data
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	h.end = int64(len(text))

	var offset int64
	for len(text) > 0 {
		line := text
		next := len(text)
		if i := bytes.IndexByte(text, '\n'); i >= 0 {
			line = text[:i]
			next = i + 1
		}
		line = bytes.TrimRight(line, "\r")
		if eq := bytes.IndexByte(line, '='); eq >= 0 {
			key := strings.ToUpper(strings.TrimSpace(string(line[:eq])))
			if _, dup := h.fields[key]; !dup {
				h.fields[key] = field{value: strings.TrimSpace(string(line[eq+1:])), offset: offset + int64(eq) + 1}
			}
		}
		offset += int64(next)
		text = text[next:]
	}
	return h
}

func (h *headerReader) str(key string) string {
	return h.fields[key].value
}

func (h *headerReader) integer(key string, min int) (int, error) {
	f, ok := h.fields[key]
	if !ok {
		return 0, &core.BadHeaderError{Field: key, Offset: h.end, Msg: "missing"}
	}
	// Some writers store integers as "1024.0".
	v, err := strconv.ParseFloat(f.value, 64)
	if err != nil || v != math.Trunc(v) {
		return 0, &core.BadHeaderError{Field: key, Offset: f.offset, Msg: fmt.Sprintf("not an integer: %q", f.value)}
	}
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, &core.BadHeaderError{Field: key, Offset: f.offset, Msg: fmt.Sprintf("out of range: %q", f.value)}
	}
	if int(v) < min {
		return 0, &core.BadHeaderError{Field: key, Offset: f.offset, Msg: fmt.Sprintf("must be at least %d, got %d", min, int(v))}
	}
	return int(v), nil
}

func (h *headerReader) number(key string, nonZero bool) (float64, error) {
	f, ok := h.fields[key]
	if !ok {
		return 0, &core.BadHeaderError{Field: key, Offset: h.end, Msg: "missing"}
	}
	v, err := strconv.ParseFloat(f.value, 64)
	if err != nil {
		return 0, &core.BadHeaderError{Field: key, Offset: f.offset, Msg: fmt.Sprintf("not a number: %q", f.value)}
	}
	if nonZero && v == 0 {
		return 0, &core.BadHeaderError{Field: key, Offset: f.offset, Msg: "must not be zero"}
	}
	return v, nil
}

// ParseHeader decodes and checks the header at the start of data.
func ParseHeader(data []byte) (*Header, error) {
	h := readFields(data)
	hdr := &Header{ID: h.str("ID"), Version: h.str("VER")}

	ints := []struct {
		key string
		min int
		dst *int
	}{
		{"NC", 1, &hdr.Channels},
		{"NR", 0, &hdr.Records},
		{"NBH", 1, &hdr.HeaderBytes},
		{"NBA", 0, &hdr.Analysis},
		{"NBD", 0, &hdr.Data},
		{"NP", 0, &hdr.Samples},
		{"ADCMAX", 1, &hdr.ADCMax},
	}
	for _, i := range ints {
		v, err := h.integer(i.key, i.min)
		if err != nil {
			return nil, err
		}
		*i.dst = v
	}
	dt, err := h.number("DT", true)
	if err != nil {
		return nil, err
	}
	hdr.Interval = dt

	if hdr.HeaderBytes > len(data) {
		return nil, &core.BadHeaderError{Field: "NBH", Offset: h.fields["NBH"].offset,
			Msg: fmt.Sprintf("header size %d exceeds input size %d", hdr.HeaderBytes, len(data))}
	}
	if h.end > int64(hdr.HeaderBytes) {
		return nil, &core.BadHeaderError{Field: "NBH", Offset: h.fields["NBH"].offset,
			Msg: fmt.Sprintf("header text runs to byte %d, past the declared size %d", h.end, hdr.HeaderBytes)}
	}
	if hdr.Analysis > maxRecordBlocks || hdr.Data > maxRecordBlocks-hdr.Analysis {
		return nil, &core.BadHeaderError{Field: "NBD", Offset: h.fields["NBD"].offset,
			Msg: fmt.Sprintf("record of %d+%d blocks exceeds %d blocks", hdr.Analysis, hdr.Data, maxRecordBlocks)}
	}
	if hdr.Records > 0 && hdr.Channels > (hdr.Analysis*BlockSize-analysisSize)/4 {
		return nil, &core.BadHeaderError{Field: "NBA", Offset: h.fields["NBA"].offset,
			Msg: fmt.Sprintf("%d analysis blocks cannot hold %d channels", hdr.Analysis, hdr.Channels)}
	}
	if hdr.Samples > hdr.Data*BlockSize/2/hdr.Channels {
		return nil, &core.BadHeaderError{Field: "NP", Offset: h.fields["NP"].offset,
			Msg: fmt.Sprintf("%d samples per channel do not fit in %d data blocks", hdr.Samples, hdr.Data)}
	}
	// Samples*Channels is bounded by the data section from here on.
	if perRecord := int64(hdr.Samples) * int64(hdr.Channels); perRecord > 0 && int64(hdr.Records) > math.MaxInt64/perRecord {
		return nil, &core.BadHeaderError{Field: "NR", Offset: h.fields["NR"].offset,
			Msg: fmt.Sprintf("%d records of %d samples overflow the sample count", hdr.Records, perRecord)}
	}

	for c := 0; c < hdr.Channels; c++ {
		n := strconv.Itoa(c)
		ch := ChannelInfo{Name: h.str("YN" + n), Unit: h.str("YU" + n)}
		if ch.Name == "" {
			ch.Name = "Ch" + n
		}
		if ch.Gain, err = h.number("YG"+n, true); err != nil {
			return nil, err
		}
		if ch.Factor, err = h.number("YCF"+n, true); err != nil {
			return nil, err
		}
		if ch.Position, err = h.integer("YO"+n, 0); err != nil {
			return nil, err
		}
		if ch.Position >= hdr.Channels {
			return nil, &core.BadHeaderError{Field: "YO" + n, Offset: h.fields["YO"+n].offset,
				Msg: fmt.Sprintf("channel position %d out of range for %d channels", ch.Position, hdr.Channels)}
		}
		hdr.Channel = append(hdr.Channel, ch)
	}
	return hdr, nil
}

// Import implements formats.Importer.
func (Importer) Import(r io.Reader) (*core.Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading wcp data: %w", err)
	}
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	log, err := readRecords(hdr, data)
	if err != nil {
		return nil, err
	}

	name := "wcp"
	if hdr.ID != "" {
		name = hdr.ID
	}
	m := core.NewModel(name)
	if hdr.Version != "" {
		m.Meta["wcp_version"] = hdr.Version
	}
	m.MustAdd(&core.Binding{Name: "dt", Role: core.RoleConstant, Expr: core.Num(hdr.Interval), Unit: "s", Doc: "sampling interval"})
	m.Data = log
	return m, nil
}

func readRecords(hdr *Header, data []byte) (*core.DataLog, error) {
	log := &core.DataLog{Interval: hdr.Interval}
	for _, ch := range hdr.Channel {
		log.Channels = append(log.Channels, &core.Channel{Name: ch.Name, Unit: ch.Unit})
	}

	recordSize := (hdr.Analysis + hdr.Data) * BlockSize
	perRecord := hdr.Samples * hdr.Channels
	declared := int64(hdr.Records) * int64(perRecord)
	var actual int64

	for r := 0; r < hdr.Records; r++ {
		start := hdr.HeaderBytes + r*recordSize
		analysisEnd := start + hdr.Analysis*BlockSize
		if analysisEnd > len(data) {
			break
		}

		var ab analysisBlock
		rd := bytes.NewReader(data[start:analysisEnd])
		if err := binary.Read(rd, binary.LittleEndian, &ab); err != nil {
			return nil, fmt.Errorf("record %d analysis block: %w", r, err)
		}
		vmax := make([]float32, hdr.Channels)
		if err := binary.Read(rd, binary.LittleEndian, vmax); err != nil {
			return nil, fmt.Errorf("record %d analysis block: %w", r, err)
		}

		body := data[analysisEnd:min(analysisEnd+hdr.Data*BlockSize, len(data))]
		available := min(perRecord, len(body)/2)
		actual += int64(available)
		// Only whole sample frames are kept.
		frames := available / hdr.Channels

		for c, ch := range hdr.Channel {
			scale := float64(vmax[c]) / (float64(hdr.ADCMax+1) * ch.Factor * ch.Gain)
			values := make([]float64, frames)
			for i := range values {
				at := 2 * (i*hdr.Channels + ch.Position)
				raw := int16(binary.LittleEndian.Uint16(body[at:]))
				values[i] = float64(raw) * scale
			}
			log.Channels[c].Records = append(log.Channels[c].Records, values)
		}
		if available < perRecord {
			break
		}
	}

	if actual < declared {
		return nil, &core.TruncatedInputError{Unit: "samples", Declared: declared, Actual: actual, Offset: int64(len(data))}
	}
	return log, nil
}
