package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Encoder serializes request payloads.
type Encoder interface {
	Marshal(v any) ([]byte, error)
}

// Decoder deserializes response bodies.
type Decoder interface {
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default [Encoder] and [Decoder].
// UseNumber preserves numbers as [json.Number] instead of float64.
type JSONCodec struct {
	UseNumber bool
}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c JSONCodec) Unmarshal(data []byte, v any) error {
	d := json.NewDecoder(bytes.NewReader(data))
	if c.UseNumber {
		d.UseNumber()
	}

	if err := d.Decode(v); err != nil {
		return err
	}

	if _, err := d.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after json value at offset %d", d.InputOffset())
	}

	return nil
}
