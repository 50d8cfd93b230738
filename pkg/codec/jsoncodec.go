// pkg/codec/jsoncodec.go
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ContentType() string
}

// ErrTrailingContent is returned by JSONStrict when a document is followed by more data.
var ErrTrailingContent = errors.New("json trailing content")

type jsonCodec struct{ strict bool }

// JSON encodes response bodies. HTML escaping is off so payloads echo verbatim.
var JSON Codec = jsonCodec{}

// JSONStrict decodes request bodies, rejecting unknown fields and trailing data.
var JSONStrict Codec = jsonCodec{strict: true}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if c.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	if !c.strict {
		return nil
	}
	// Trailing data must be EOF
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return ErrTrailingContent
	}
	return nil
}

func (jsonCodec) ContentType() string { return "application/json" }
