/*
Copyright 2026 The Trino Teradata Connector Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rowdecoder

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/schema"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/wirecodec"
)

func sc(cols ...schema.Column) schema.ColumnSchema { return schema.ColumnSchema{Columns: cols} }

func TestIntegerExtremesRoundTrip(t *testing.T) {
	schm := sc(
		schema.Column{Name: "id", Type: schema.Integer},
		schema.Column{Name: "a", Type: schema.Integer},
		schema.Column{Name: "b", Type: schema.Bigint},
	)
	var payload []byte
	payload = append(payload, wirecodec.WriteU32(2)...)
	payload = appendRow(payload, 0, wirecodec.WriteI32(1), 0, wirecodec.WriteI32(-2147483648), 0, wirecodec.WriteI64(9223372036854775807))
	payload = appendRow(payload, 0, wirecodec.WriteI32(2), 0, wirecodec.WriteI32(2147483647), 0, wirecodec.WriteI64(-9223372036854775808))

	batch, err := Decode(payload, schm)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.RowCount)
	assert.Equal(t, []int32{1, 2}, batch.Columns[0].Int32s)
	assert.Equal(t, []int32{-2147483648, 2147483647}, batch.Columns[1].Int32s)
	assert.Equal(t, []int64{9223372036854775807, -9223372036854775808}, batch.Columns[2].Int64s)
}

func TestUnicodeVarcharRoundTrip(t *testing.T) {
	schm := sc(schema.Column{Name: "s", Type: schema.Varchar})
	values := []string{"中文测试", "ทดสอบ", "Test 中文 Mix"}

	var payload []byte
	payload = append(payload, wirecodec.WriteU32(uint32(len(values)))...)
	for _, v := range values {
		payload = append(payload, 0)
		payload = append(payload, wirecodec.WriteU16(uint16(len(v)))...)
		payload = append(payload, []byte(v)...)
	}
	batch, err := Decode(payload, schm)
	require.NoError(t, err)
	assert.Equal(t, values, batch.Columns[0].Strs)
}

// A DECIMAL(38,10) must round-trip its exact 128-bit unscaled mantissa.
func TestDecimalLongExactMantissa(t *testing.T) {
	schm := sc(schema.Column{Name: "d", Type: schema.DecimalLong, Scale: 10, Precision: 38})
	want, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	le := want.Bytes() // big-endian from big.Int
	full := make([]byte, 16)
	copy(full[16-len(le):], le)
	// big.Int.Bytes() is big-endian; the wire wants little-endian input.
	leWire := make([]byte, 16)
	for i := 0; i < 16; i++ {
		leWire[i] = full[15-i]
	}

	var payload []byte
	payload = append(payload, wirecodec.WriteU32(1)...)
	payload = append(payload, 0)
	payload = append(payload, leWire...)

	batch, err := Decode(payload, schm)
	require.NoError(t, err)
	got := new(big.Int).SetBytes(batch.Columns[0].Dec128[0][:])
	assert.Equal(t, want.String(), got.String())
}

func TestNullBitmapIndependentOfPayload(t *testing.T) {
	schm := sc(schema.Column{Name: "a", Type: schema.Integer})
	var payload []byte
	payload = append(payload, wirecodec.WriteU32(2)...)
	payload = append(payload, 1) // row 0: null, no payload bytes follow
	payload = append(payload, 0)
	payload = append(payload, wirecodec.WriteI32(42)...)

	batch, err := Decode(payload, schm)
	require.NoError(t, err)
	assert.True(t, batch.Columns[0].Nulls[0])
	assert.Equal(t, int32(0), batch.Columns[0].Int32s[0])
	assert.False(t, batch.Columns[0].Nulls[1])
	assert.Equal(t, int32(42), batch.Columns[0].Int32s[1])
}

func TestUnknownTypeRendersHex(t *testing.T) {
	schm := schema.WireSchema{Columns: []schema.WireColumn{{Name: "x", Type: "BLOB"}}}.ToColumnSchema()
	require.True(t, schm.Columns[0].Unknown)

	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	var payload []byte
	payload = append(payload, wirecodec.WriteU32(1)...)
	payload = append(payload, 0)
	payload = append(payload, wirecodec.WriteU16(uint16(len(raw)))...)
	payload = append(payload, raw...)

	batch, err := Decode(payload, schm)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", batch.Columns[0].Strs[0])
}

func TestProducerTimezoneNormalization(t *testing.T) {
	schm := sc(
		schema.Column{Name: "ts", Type: schema.Timestamp},
		schema.Column{Name: "tm", Type: schema.Time},
	)
	// TIMESTAMP 1970-01-01 05:30:00 producer-local, TIME 02:00:00.
	var ts []byte
	ts = append(ts, wirecodec.WriteU32(0)...)
	ts = append(ts, wirecodec.WriteU16(1970)...)
	ts = append(ts, 1, 1, 5, 30)
	tm := append(wirecodec.WriteU32(0), 2, 0)

	var payload []byte
	payload = append(payload, wirecodec.WriteU32(1)...)
	payload = append(payload, 0)
	payload = append(payload, ts...)
	payload = append(payload, 0)
	payload = append(payload, tm...)

	// Producer runs at UTC+05:30 (an offset that exercises the wrap-around
	// on the TIME column).
	batch, err := DecodeWithOptions(payload, schm, Options{ProducerUTCOffset: 5*time.Hour + 30*time.Minute})
	require.NoError(t, err)
	assert.Equal(t, int64(0), batch.Columns[0].Int64s[0]) // 05:30 local == epoch UTC
	wantPicos := int64(20*3600+30*60) * 1_000_000_000_000 // 02:00 - 05:30 wraps to 20:30
	assert.Equal(t, wantPicos, batch.Columns[1].Int64s[0])
}

func TestTruncatedPayloadIsTypedDecodeError(t *testing.T) {
	schm := sc(schema.Column{Name: "a", Type: schema.Bigint})
	payload := append(wirecodec.WriteU32(1), 0, 1, 2, 3) // short int64
	_, err := Decode(payload, schm)
	require.Error(t, err)
}

func appendRow(payload []byte, parts ...interface{}) []byte {
	for _, p := range parts {
		switch v := p.(type) {
		case int:
			payload = append(payload, byte(v))
		case []byte:
			payload = append(payload, v...)
		}
	}
	return payload
}
