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
	"encoding/hex"
	"math"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/schema"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/wirecodec"
)

// Options adjusts decoding for producer-side session settings.
type Options struct {
	// ProducerUTCOffset is the producer session's UTC offset
	// (producer-timezone). Decoded TIME and TIMESTAMP values are shifted
	// by it so the engine always sees UTC; zero leaves them untouched.
	ProducerUTCOffset time.Duration
}

// Decode parses a raw (already decompressed) batch payload — a leading u32
// row count followed by that many rows, each row a null-indicator-prefixed
// sequence of per-column values in schema order — into a columnar Batch.
//
// Decode never panics and never fails the batch for an unrecognized column
// type; it fails only when the payload itself is short or structurally
// inconsistent with the declared schema.
func Decode(payload []byte, sc schema.ColumnSchema) (*Batch, error) {
	return DecodeWithOptions(payload, sc, Options{})
}

// DecodeWithOptions is Decode with producer-session adjustments applied.
func DecodeWithOptions(payload []byte, sc schema.ColumnSchema, opts Options) (*Batch, error) {
	rowCount, err := wirecodec.ReadU32(payload)
	if err != nil {
		return nil, connerr.Wrap(connerr.KindProtocolDecodeError, err, "batch row count")
	}
	off := 4
	batch := AcquireBatch(sc, int(rowCount))

	for row := 0; row < int(rowCount); row++ {
		for ci, col := range sc.Columns {
			if off >= len(payload) {
				batch.Release()
				return nil, connerr.New(connerr.KindProtocolDecodeError,
					"row %d column %q (%s): truncated null indicator", row, col.Name, col.Type)
			}
			isNull := payload[off] == 1
			off++
			if isNull {
				batch.Columns[ci].Nulls[row] = true
				continue
			}
			var n int
			n, err = decodeValue(payload[off:], col, &batch.Columns[ci], row, opts)
			if err != nil {
				batch.Release()
				return nil, connerr.Wrap(connerr.KindProtocolDecodeError, err,
					"row %d column %q (%s)", row, col.Name, col.Type)
			}
			off += n
		}
	}
	return batch, nil
}

// decodeValue decodes one non-null column value at b[0:], writes it into
// dst at index row, and returns the number of bytes consumed.
func decodeValue(b []byte, col schema.Column, dst *Column, row int, opts Options) (int, error) {
	switch col.Type {
	case schema.Varchar:
		return decodeVarchar(b, col, dst, row)
	case schema.Integer:
		v, err := wirecodec.ReadI32(b)
		if err != nil {
			return 0, err
		}
		dst.Int32s[row] = v
		return 4, nil
	case schema.Bigint:
		v, err := wirecodec.ReadI64(b)
		if err != nil {
			return 0, err
		}
		dst.Int64s[row] = v
		return 8, nil
	case schema.Double:
		bits, err := wirecodec.ReadI64(b)
		if err != nil {
			return 0, err
		}
		dst.Floats[row] = int64BitsToFloat64(bits)
		return 8, nil
	case schema.Date:
		encoded, err := wirecodec.ReadI32(b)
		if err != nil {
			return 0, err
		}
		dst.Int64s[row] = wirecodec.ProducerDateToEpochDays(encoded)
		return 4, nil
	case schema.Time:
		picos, err := wirecodec.ProducerTimeToPicos(b)
		if err != nil {
			return 0, err
		}
		dst.Int64s[row] = normalizeTimePicos(picos, opts.ProducerUTCOffset)
		return 6, nil
	case schema.Timestamp:
		micros, err := wirecodec.ProducerTimestampToMicros(b)
		if err != nil {
			return 0, err
		}
		dst.Int64s[row] = micros - opts.ProducerUTCOffset.Microseconds()
		return 10, nil
	case schema.DecimalShort:
		// Per the batch row format DECIMAL_SHORT is always the 8-byte i64
		// form on this wire (WireCodec's DecimalShortToI64 additionally
		// supports the 1/2/4-byte widths for standalone testability).
		if len(b) < 8 {
			return 0, connerr.New(connerr.KindProtocolDecodeError, "decimal_short: need 8 bytes, have %d", len(b))
		}
		v, err := wirecodec.DecimalShortToI64(b[:8])
		if err != nil {
			return 0, err
		}
		dst.Int64s[row] = v
		return 8, nil
	case schema.DecimalLong:
		if len(b) < 16 {
			return 0, connerr.New(connerr.KindProtocolDecodeError, "decimal_long: need 16 bytes, have %d", len(b))
		}
		v, err := wirecodec.DecimalLongBytes(b[:16])
		if err != nil {
			return 0, err
		}
		dst.Dec128[row] = v
		return 16, nil
	default:
		return decodeVarchar(b, col, dst, row)
	}
}

func decodeVarchar(b []byte, col schema.Column, dst *Column, row int) (int, error) {
	length, err := wirecodec.ReadU16(b)
	if err != nil {
		return 0, err
	}
	n := int(length)
	if len(b) < 2+n {
		return 0, connerr.New(connerr.KindProtocolDecodeError, "varchar: need %d bytes, have %d", 2+n, len(b))
	}
	raw := b[2 : 2+n]
	if col.Unknown {
		dst.Strs[row] = hex.EncodeToString(raw)
	} else {
		dst.Strs[row] = string(raw)
	}
	return 2 + n, nil
}

func int64BitsToFloat64(bits int64) float64 {
	return math.Float64frombits(uint64(bits))
}

const picosPerDay = int64(86400) * 1_000_000_000_000

// normalizeTimePicos shifts a time-of-day by the producer's UTC offset,
// wrapping around midnight so the result stays in [0, picosPerDay).
func normalizeTimePicos(picos int64, offset time.Duration) int64 {
	if offset == 0 {
		return picos
	}
	shifted := (picos - offset.Microseconds()*1_000_000) % picosPerDay
	if shifted < 0 {
		shifted += picosPerDay
	}
	return shifted
}
