// Package persist stores snapshot files through pluggable codecs.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// ErrUnknownCodec is returned by CodecByName for an unsupported name.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec names accepted by CodecByName.
const (
	CodecJSON    = "json"
	CodecGob     = "gob"
	CodecGobLZ4  = "gob+lz4"
	CodecJSONLZ4 = "json+lz4"
)

// Codec serializes snapshot values.
type Codec interface {
	Encode(w io.Writer, state any) error
	Decode(r io.Reader, state any) error
	// Extension is the file suffix, dot included.
	Extension() string
}

// JSONCodec writes JSON, indented when Indent is set.
type JSONCodec struct {
	Indent string
}

// NewJSONCodec returns a JSON codec with two-space indentation.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: "  "}
}

// Encode implements Codec.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	enc := json.NewEncoder(w)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}

	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	if err := json.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (c *JSONCodec) Extension() string {
	return ".json"
}

// GobCodec writes encoding/gob streams.
type GobCodec struct{}

// Encode implements Codec.
func (GobCodec) Encode(w io.Writer, state any) error {
	if err := gob.NewEncoder(w).Encode(state); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (GobCodec) Decode(r io.Reader, state any) error {
	if err := gob.NewDecoder(r).Decode(state); err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (GobCodec) Extension() string {
	return ".gob"
}

// LZ4Codec compresses the output of another codec with an LZ4 frame.
type LZ4Codec struct {
	Inner Codec
}

// Encode implements Codec.
func (c LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	if err := c.Inner.Encode(zw, state); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("lz4 close: %w", err)
	}

	return nil
}

// Decode implements Codec.
func (c LZ4Codec) Decode(r io.Reader, state any) error {
	return c.Inner.Decode(lz4.NewReader(r), state)
}

// Extension implements Codec.
func (c LZ4Codec) Extension() string {
	return c.Inner.Extension() + ".lz4"
}

// CodecByName resolves one of the Codec* names.
func CodecByName(name string) (Codec, error) {
	switch name {
	case CodecJSON, "":
		return NewJSONCodec(), nil
	case CodecGob:
		return GobCodec{}, nil
	case CodecGobLZ4:
		return LZ4Codec{Inner: GobCodec{}}, nil
	case CodecJSONLZ4:
		return LZ4Codec{Inner: &JSONCodec{}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}
