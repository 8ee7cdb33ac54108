package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedPayload is returned by Decode for input that is not a single
// well-formed JSON value.
var ErrMalformedPayload = errors.New("value: malformed payload")

// maxDepth bounds array/object nesting accepted by Decode.
const maxDepth = 512

// Decode parses data into a Value.
//
// Each token is classified in a fixed order, first match wins:
// Bool, Integer (no decimal point or exponent), Float, String, Object, Array.
// null decodes to Null. Integer literals that overflow int64 decode as Float.
// Anything that is not exactly one JSON value fails with ErrMalformedPayload.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeNext(dec, 0)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data after value", ErrMalformedPayload)
	}
	return v, nil
}

func decodeNext(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return decodeToken(dec, tok, depth)
}

func decodeToken(dec *json.Decoder, tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case bool:
		return Bool(t), nil
	case json.Number:
		return decodeNumber(t)
	case string:
		return String(t), nil
	case json.Delim:
		if depth >= maxDepth {
			return Value{}, fmt.Errorf("%w: nesting exceeds %d levels", ErrMalformedPayload, maxDepth)
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		}
		return Value{}, fmt.Errorf("%w: unexpected %q", ErrMalformedPayload, t)
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected token %v", ErrMalformedPayload, tok)
	}
}

func decodeNumber(n json.Number) (Value, error) {
	lit := n.String()
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: number %s out of range", ErrMalformedPayload, lit)
	}
	return Float(f), nil
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	obj := make(map[string]Value)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: object key must be a string", ErrMalformedPayload)
		}
		member, err := decodeNext(dec, depth)
		if err != nil {
			return Value{}, err
		}
		obj[key] = member
	}
	if err := expectDelim(dec, '}'); err != nil {
		return Value{}, err
	}
	return Value{kind: KindObject, obj: obj}, nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	arr := make([]Value, 0)
	for dec.More() {
		elem, err := decodeNext(dec, depth)
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, elem)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return Value{}, err
	}
	return Value{kind: KindArray, arr: arr}, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q", ErrMalformedPayload, want)
	}
	return nil
}

// Encode renders v as compact JSON. Object members are written in sorted key
// order. Floats always carry a decimal point or exponent so they decode as
// Float again; NaN and infinities have no JSON form and are written as null.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encodeTo(&buf, v)
	return buf.Bytes()
}

func encodeTo(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInteger:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		encodeFloat(buf, v.f)
	case KindString:
		encodeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeTo(buf, elem)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, key := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, key)
			buf.WriteByte(':')
			encodeTo(buf, v.obj[key])
		}
		buf.WriteByte('}')
	}
}

func encodeFloat(buf *bytes.Buffer, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.WriteString("null")
		return
	}
	lit := strconv.FormatFloat(f, 'g', -1, 64)
	buf.WriteString(lit)
	if !strings.ContainsAny(lit, ".eE") {
		buf.WriteString(".0")
	}
}

func encodeString(buf *bytes.Buffer, s string) {
	// json.Marshal never fails for a string.
	data, _ := json.Marshal(s)
	buf.Write(data)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return Encode(v), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// String renders v as JSON text.
func (v Value) String() string {
	return string(Encode(v))
}
