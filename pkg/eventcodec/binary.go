package eventcodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
	"github.com/Sumatoshi-tech/listdelta/pkg/safeconv"
)

// Dump layout:
//
//	magic "LDEV" | version | uvarint record count | records...
//
// Each record is a tag byte (structural or reorder), a uvarint entry count
// and one payload of little-endian uint32 values. Structural payloads hold
// three columns: delta-encoded starts, lengths and kinds. Reorder payloads
// hold the map. A payload is a mode byte (raw or LZ4 block), a uvarint byte
// length and the bytes.
const (
	magic   = "LDEV"
	version = 1

	tagStructural byte = 0
	tagReorder    byte = 1

	modeRaw byte = 0
	modeLZ4 byte = 1

	uint32Size = 4
	// maxEntries bounds any count read from a header.
	maxEntries = 1 << 24
	// Header counts are untrusted, so preallocation is capped and slices
	// grow with the data actually read.
	maxPrealloc = 64
	// An LZ4 block never expands to more than this many times its size.
	maxLZ4Ratio = 255
)

// ErrCorrupt is returned when a dump cannot be decoded.
var ErrCorrupt = errors.New("corrupt event dump")

// Encode writes records as a binary dump.
func Encode(w io.Writer, records []Record) error {
	var buf []byte

	buf = append(buf, magic...)
	buf = append(buf, version)
	buf = binary.AppendUvarint(buf, uint64(len(records)))

	for _, rec := range records {
		var (
			tag    byte
			values []uint32
			err    error
		)

		if rec.IsReordering() {
			tag = tagReorder
			values, err = toUint32s(rec.Reorder)
		} else {
			tag = tagStructural
			values, err = blockColumns(rec.Blocks)
		}

		if err != nil {
			return fmt.Errorf("encode record %d: %w", rec.Seq, err)
		}

		entries := len(rec.Reorder)
		if tag == tagStructural {
			entries = len(rec.Blocks)
		}

		buf = append(buf, tag)
		buf = binary.AppendUvarint(buf, uint64(entries))
		buf = appendPayload(buf, values)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}

	return nil
}

// Decode reads a binary dump written by Encode.
func Decode(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)

	header := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}

	if string(header[:len(magic)]) != magic || header[len(magic)] != version {
		return nil, fmt.Errorf("%w: bad magic or version", ErrCorrupt)
	}

	count, err := readCount(br)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, min(count, maxPrealloc))

	for seq := range count {
		rec, recErr := decodeRecord(br, seq)
		if recErr != nil {
			return nil, recErr
		}

		records = append(records, rec)
	}

	return records, nil
}

func decodeRecord(br *bufio.Reader, seq int) (Record, error) {
	tag, err := br.ReadByte()
	if err != nil {
		return Record{}, fmt.Errorf("%w: record %d: %w", ErrCorrupt, seq, err)
	}

	entries, err := readCount(br)
	if err != nil {
		return Record{}, err
	}

	rec := Record{Seq: seq}

	switch tag {
	case tagReorder:
		values, payloadErr := readPayload(br, entries)
		if payloadErr != nil {
			return Record{}, payloadErr
		}

		rec.Reorder = make([]int, entries)
		for i, v := range values {
			rec.Reorder[i] = int(v)
		}
	case tagStructural:
		values, payloadErr := readPayload(br, 3*entries)
		if payloadErr != nil {
			return Record{}, payloadErr
		}

		rec.Blocks, err = columnsToBlocks(values, entries)
		if err != nil {
			return Record{}, err
		}
	default:
		return Record{}, fmt.Errorf("%w: record %d has tag %d", ErrCorrupt, seq, tag)
	}

	return rec, nil
}

func readCount(br *bufio.Reader) (int, error) {
	v, err := binary.ReadUvarint(br)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", ErrCorrupt, err)
	}

	n, err := safeconv.Uint64ToInt(v)
	if err != nil || n > maxEntries {
		return 0, fmt.Errorf("%w: count %d", ErrCorrupt, v)
	}

	return n, nil
}

func toUint32s(values []int) ([]uint32, error) {
	out := make([]uint32, len(values))

	for i, v := range values {
		u, err := safeconv.IntToUint32(v)
		if err != nil {
			return nil, err
		}

		out[i] = u
	}

	return out, nil
}

func blockColumns(blocks []listevent.ChangeBlock) ([]uint32, error) {
	n := len(blocks)
	cols := make([]int, 3*n)

	for i, b := range blocks {
		cols[i] = b.Start
		cols[n+i] = b.Length
		cols[2*n+i] = int(b.Kind)
	}

	values, err := toUint32s(cols)
	if err != nil {
		return nil, err
	}

	// Starts never decrease, so their deltas stay small.
	deltaEncode(values[:n])

	return values, nil
}

func columnsToBlocks(values []uint32, n int) ([]listevent.ChangeBlock, error) {
	if n == 0 {
		return nil, nil
	}

	deltaDecode(values[:n])

	blocks := make([]listevent.ChangeBlock, n)

	for i := range blocks {
		kind := listevent.ChangeKind(values[2*n+i])
		if kind > listevent.Insert {
			return nil, fmt.Errorf("%w: block %d has kind %d", ErrCorrupt, i, values[2*n+i])
		}

		blocks[i] = listevent.ChangeBlock{Start: int(values[i]), Length: int(values[n+i]), Kind: kind}
	}

	return blocks, nil
}

func deltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

func deltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}

func appendPayload(buf []byte, values []uint32) []byte {
	raw := make([]byte, 0, len(values)*uint32Size)
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint32(raw, v)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil || written == 0 || written >= len(raw) {
		buf = append(buf, modeRaw)
		buf = binary.AppendUvarint(buf, uint64(len(raw)))

		return append(buf, raw...)
	}

	buf = append(buf, modeLZ4)
	buf = binary.AppendUvarint(buf, uint64(written))

	return append(buf, compressed[:written]...)
}

func readPayload(br *bufio.Reader, count int) ([]uint32, error) {
	mode, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: payload mode: %w", ErrCorrupt, err)
	}

	size, err := readCount(br)
	if err != nil {
		return nil, err
	}

	want := count * uint32Size

	switch {
	case mode == modeRaw && size != want:
		return nil, fmt.Errorf("%w: raw payload holds %d bytes, want %d", ErrCorrupt, size, want)
	case mode == modeLZ4 && want > size*maxLZ4Ratio:
		return nil, fmt.Errorf("%w: lz4 payload of %d bytes cannot hold %d", ErrCorrupt, size, want)
	}

	stored, err := io.ReadAll(io.LimitReader(br, int64(size)))
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrCorrupt, err)
	}

	if len(stored) != size {
		return nil, fmt.Errorf("%w: payload: %w", ErrCorrupt, io.ErrUnexpectedEOF)
	}

	raw := stored

	switch mode {
	case modeRaw:
	case modeLZ4:
		raw = make([]byte, want)

		n, uncompressErr := lz4.UncompressBlock(stored, raw)
		if uncompressErr != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, uncompressErr)
		}

		raw = raw[:n]
	default:
		return nil, fmt.Errorf("%w: payload mode %d", ErrCorrupt, mode)
	}

	if len(raw) != want {
		return nil, fmt.Errorf("%w: payload holds %d bytes, want %d", ErrCorrupt, len(raw), want)
	}

	values := make([]uint32, count)
	if err = binary.Read(bytes.NewReader(raw), binary.LittleEndian, values); err != nil {
		return nil, fmt.Errorf("%w: payload values: %w", ErrCorrupt, err)
	}

	return values, nil
}
