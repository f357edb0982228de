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

// Package wirecodec holds the pure, allocation-light functions that turn
// the producer's packed big-endian wire formats into Go values. Nothing in
// this package touches a socket: every function takes a byte slice (or
// value) and returns a value (or bytes), so the row decoder and bridge
// receiver can be tested byte-for-byte without a live producer.
package wirecodec

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
)

// errShort builds the typed decode error every reader returns on truncated
// input; readers never panic on short input.
func errShort(what string, need, have int) error {
	return connerr.New(connerr.KindProtocolDecodeError, "%s: need %d bytes, have %d", what, need, have)
}

// --- fixed-width big-endian integers -------------------------------------

func WriteU16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func WriteU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func WriteI32(v int32) []byte { return WriteU32(uint32(v)) }

func WriteI64(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func ReadU16(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, errShort("u16", 2, len(b))
	}
	return binary.BigEndian.Uint16(b), nil
}

func ReadU32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, errShort("u32", 4, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

func ReadI32(b []byte) (int32, error) {
	v, err := ReadU32(b)
	return int32(v), err
}

func ReadI64(b []byte) (int64, error) {
	if len(b) < 8 {
		return 0, errShort("i64", 8, len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// --- UTF-16LE -> UTF-8 -----------------------------------------------------

// Utf16leToUtf8 decodes a UTF-16LE byte string (as the producer emits VARCHAR
// payloads internally before the bridge re-encodes them as length-prefixed
// UTF-8) into a UTF-8 Go string. Surrogate pairs (high 0xD800-0xDBFF, low
// 0xDC00-0xDFFF) are reconstructed into code points >= 0x10000.
func Utf16leToUtf8(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errShort("utf16le (odd length)", len(b)+1, len(b))
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	runes := utf16.Decode(units)
	var sb strings.Builder
	sb.Grow(len(runes) * utf8.UTFMax)
	for _, r := range runes {
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// --- producer DATE ---------------------------------------------------------

// ProducerDateToEpochDays reconstructs the calendar date the producer packs
// as (year-1900)*10000 + month*100 + day (possibly negative for pre-1900
// years) and converts it to days since the 1970-01-01 epoch using the
// standard proleptic-Gregorian days-from-civil algorithm.
func ProducerDateToEpochDays(encoded int32) int64 {
	d := int64(encoded)
	yOff := d / 10000
	md := d % 10000
	if md < 0 {
		yOff--
		md += 10000
	}
	year := yOff + 1900
	month := int(md / 100)
	day := int(md % 100)
	return daysFromCivil(year, month, day)
}

// daysFromCivil is Howard Hinnant's days_from_civil: proleptic Gregorian
// calendar date -> days relative to 1970-01-01, valid for the full int64
// range of years.
func daysFromCivil(y int64, m, d int) int64 {
	if m <= 2 {
		y--
	}
	era := y
	if y < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400 // [0, 399]
	var mp int
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1                    // [0, 365]
	doe := yoe*365 + yoe/4 - yoe/100 + int64(doy) // [0, 146096]
	return era*146097 + doe - 719468
}

// --- producer TIME / TIMESTAMP ---------------------------------------------

const (
	picosPerSecond  = int64(1_000_000_000_000)
	microsPerSecond = int64(1_000_000)
	microsPerDay    = int64(86400) * microsPerSecond
)

// ProducerTimeToPicos decodes the 6-byte producer TIME payload
// ([u32 scaled-seconds][u8 hour][u8 minute]) into picoseconds since
// midnight.
func ProducerTimeToPicos(b []byte) (int64, error) {
	if len(b) < 6 {
		return 0, errShort("time", 6, len(b))
	}
	scaledSeconds, err := ReadU32(b[0:4])
	if err != nil {
		return 0, err
	}
	hour := int64(b[4])
	minute := int64(b[5])
	return ((hour%24)*3600+(minute%60)*60)*picosPerSecond + int64(scaledSeconds)*microsPerSecond, nil
}

// ProducerTimestampToMicros decodes the 10-byte producer TIMESTAMP payload
// ([u32 scaled-seconds][u16 year][u8 month][u8 day][u8 hour][u8 minute])
// into microseconds since the 1970-01-01T00:00:00 epoch.
func ProducerTimestampToMicros(b []byte) (int64, error) {
	if len(b) < 10 {
		return 0, errShort("timestamp", 10, len(b))
	}
	scaledSeconds, err := ReadU32(b[0:4])
	if err != nil {
		return 0, err
	}
	year, err := ReadU16(b[4:6])
	if err != nil {
		return 0, err
	}
	month := int(b[6])
	day := int(b[7])
	hour := int64(b[8])
	minute := int64(b[9])

	epochDays := daysFromCivil(int64(year), month, day)
	return epochDays*microsPerDay + (hour%24*3600+minute%60*60)*microsPerSecond + int64(scaledSeconds), nil
}

// --- small-integer widening --------------------------------------------------

// ProducerByteintToI32 widens a 1-byte signed producer BYTEINT to int32.
// SMALLINT and BYTEINT both travel as i32 on the batch wire; the widening
// helpers exist so that rule is independently testable.
func ProducerByteintToI32(b []byte) (int32, error) {
	if len(b) < 1 {
		return 0, errShort("byteint", 1, len(b))
	}
	return int32(int8(b[0])), nil
}

// ProducerSmallintToI32 widens a 2-byte big-endian signed producer SMALLINT
// to int32.
func ProducerSmallintToI32(b []byte) (int32, error) {
	u, err := ReadU16(b)
	if err != nil {
		return 0, err
	}
	return int32(int16(u)), nil
}

// --- decimals ---------------------------------------------------------------

// DecimalShortToI64 decodes a 1/2/4/8-byte little-endian signed integer
// mantissa. The caller (who knows the column's Scale) is responsible for
// interpreting the returned value as unscaled*10^-scale.
func DecimalShortToI64(b []byte) (int64, error) {
	switch len(b) {
	case 1:
		return int64(int8(b[0])), nil
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b))), nil
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(b))), nil
	case 8:
		return int64(binary.LittleEndian.Uint64(b)), nil
	default:
		return 0, connerr.New(connerr.KindProtocolDecodeError, "decimal_short: unsupported width %d", len(b))
	}
}

// DecimalLongBytes byte-reverses a 16-byte little-endian two's-complement
// unscaled mantissa into the 16-byte big-endian canonical form the consumer
// engine expects.
func DecimalLongBytes(b []byte) ([16]byte, error) {
	var out [16]byte
	if len(b) != 16 {
		return out, errShort("decimal_long", 16, len(b))
	}
	for i := 0; i < 16; i++ {
		out[i] = b[15-i]
	}
	return out, nil
}

// --- literal rendering, shared with the pushdown planner -------------------

// EscapeStringLiteral doubles embedded single quotes, the producer SQL
// dialect's escaping rule for string literals.
func EscapeStringLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
