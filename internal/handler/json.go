package handler

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/lumenis/storefront/internal/domain/money"
)

const maxBodySize = 1 << 20

var errEmptyBody = errors.New("request body required")

// writeJSON encodes a response body with jx and writes it with status.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodeObject reads a JSON object from the request body and calls field for
// each key. An empty body is rejected unless optional is set.
func decodeObject(w http.ResponseWriter, r *http.Request, optional bool, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return &badRequestError{err: errors.Wrap(err, "read body")}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if optional {
			return nil
		}
		return &badRequestError{err: errEmptyBody}
	}
	if err := jx.DecodeBytes(body).Obj(field); err != nil {
		return &badRequestError{err: err}
	}
	return nil
}

// badRequestError marks malformed input.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse amount %q", raw)
	}
	return v, nil
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}

// decodeOptInt decodes an integer that may be null.
func decodeOptInt(d *jx.Decoder) (*int, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Int()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeInto stores a decoded value in *dst, leaving it nil for JSON null.
func decodeInto[T any](d *jx.Decoder, dst **T, decode func(*jx.Decoder) (T, error)) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	v, err := decode(d)
	if err != nil {
		return err
	}
	*dst = &v
	return nil
}

func encodeMoney(e *jx.Encoder, name string, v decimal.Decimal) {
	e.FieldStart(name)
	e.Num(jx.Num(money.Round(v).StringFixed(money.Places)))
}

func encodeTime(e *jx.Encoder, name string, t time.Time) {
	e.FieldStart(name)
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeOptTime(e *jx.Encoder, name string, t *time.Time) {
	if t != nil {
		encodeTime(e, name, *t)
	}
}

func encodeStr(e *jx.Encoder, name, v string) {
	e.FieldStart(name)
	e.Str(v)
}

func encodeInt(e *jx.Encoder, name string, v int) {
	e.FieldStart(name)
	e.Int(v)
}

func encodeBool(e *jx.Encoder, name string, v bool) {
	e.FieldStart(name)
	e.Bool(v)
}
