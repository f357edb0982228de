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

package bridge

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
)

func startTestReceiver(t *testing.T, cfg Config, registry *bufferregistry.Registry, tokens TokenAuthority) *Receiver {
	t.Helper()
	cfg.BridgePort = 0
	r := NewReceiver(cfg, registry, tokens)
	require.NoError(t, r.Listen())
	go r.Serve()
	t.Cleanup(func() { r.Close() })
	return r
}

func dial(t *testing.T, addr net.Addr) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeLenPrefixed(t *testing.T, conn net.Conn, b []byte) {
	t.Helper()
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	_, err := conn.Write(lenBuf[:])
	require.NoError(t, err)
	if len(b) > 0 {
		_, err = conn.Write(b)
		require.NoError(t, err)
	}
}

func writeU32(t *testing.T, conn net.Conn, v uint32) {
	t.Helper()
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := conn.Write(buf[:])
	require.NoError(t, err)
}

func writeHandshake(t *testing.T, conn net.Conn, token, qid string, compression uint32, schemaJSON string) {
	t.Helper()
	writeLenPrefixed(t, conn, []byte(token))
	writeLenPrefixed(t, conn, []byte(qid))
	writeU32(t, conn, compression)
	writeLenPrefixed(t, conn, []byte(schemaJSON))
}

func simpleIntSchemaJSON() string {
	return `{"columns":[{"name":"a","type":"INTEGER"}]}`
}

// buildRawIntBatch builds an uncompressed one-column INTEGER batch payload
// with one row per value: u32 row count, then (null indicator + i32) per row.
func buildRawIntBatch(values ...int32) []byte {
	var buf bytes.Buffer
	var rc [4]byte
	binary.BigEndian.PutUint32(rc[:], uint32(len(values)))
	buf.Write(rc[:])
	for _, v := range values {
		buf.WriteByte(0)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func TestHandshakeAndStreamingEndToEnd(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	tokens := NewTokenRegistry()
	qid := bufferregistry.QueryID("q-e2e")
	tokens.Set(qid, "secret")

	r := startTestReceiver(t, DefaultConfig(), registry, tokens)
	registry.RegisterQuery(qid)

	conn := dial(t, r.Addr())
	writeHandshake(t, conn, "secret", string(qid), CompressionNone, simpleIntSchemaJSON())

	payload := buildRawIntBatch(7, 8)
	writeLenPrefixed(t, conn, payload)
	writeU32(t, conn, 0) // END sentinel

	batch, eos, ok := registry.Poll(qid, 2*time.Second)
	require.True(t, ok)
	require.False(t, eos)
	assert.Equal(t, 2, batch.RowCount)
	assert.Equal(t, []int32{7, 8}, batch.Columns[0].Int32s)
}

func TestZlibCompressedBatch(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	tokens := NewTokenRegistry()
	qid := bufferregistry.QueryID("q-zlib")
	tokens.Set(qid, "secret")

	r := startTestReceiver(t, DefaultConfig(), registry, tokens)
	registry.RegisterQuery(qid)

	conn := dial(t, r.Addr())
	writeHandshake(t, conn, "secret", string(qid), CompressionZlib, simpleIntSchemaJSON())

	raw := buildRawIntBatch(42)
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	writeLenPrefixed(t, conn, compressed.Bytes())
	writeU32(t, conn, 0)

	batch, _, ok := registry.Poll(qid, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, []int32{42}, batch.Columns[0].Int32s)
}

func TestInvalidTokenRejected(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	tokens := NewTokenRegistry()
	qid := bufferregistry.QueryID("q-badtoken")
	tokens.Set(qid, "secret")

	r := startTestReceiver(t, DefaultConfig(), registry, tokens)
	registry.RegisterQuery(qid)

	conn := dial(t, r.Addr())
	writeHandshake(t, conn, "WRONG", string(qid), CompressionNone, simpleIntSchemaJSON())

	reply := make([]byte, len(unauthorizedReply))
	_, err := conn.Read(reply)
	require.NoError(t, err)
	assert.Equal(t, unauthorizedReply, reply)

	st, err := registry.Stats(qid)
	require.NoError(t, err)
	assert.Equal(t, 0, st.ActiveConns)
}

// An unauthenticated control frame claiming JDBC_FINISHED must have no
// effect on the targeted query.
func TestMaliciousControlFrameDoesNotSignalEos(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	tokens := NewTokenRegistry()
	qid := bufferregistry.QueryID("q-s8")
	tokens.Set(qid, "secret")

	r := startTestReceiver(t, DefaultConfig(), registry, tokens)
	registry.RegisterQuery(qid)
	registry.IncrementConnections(qid)

	conn := dial(t, r.Addr())
	writeLenPrefixed(t, conn, []byte("WRONG-TOKEN"))
	writeU32(t, conn, controlMagic)
	writeLenPrefixed(t, conn, []byte(qid))
	writeU32(t, conn, jdbcFinishedCommand)
	conn.Close()

	time.Sleep(100 * time.Millisecond)
	st, err := registry.Stats(qid)
	require.NoError(t, err)
	assert.False(t, st.JdbcFinished)
}

func TestControlClientDeliversJdbcFinished(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	tokens := NewTokenRegistry()
	qid := bufferregistry.QueryID("q-client")
	tokens.Set(qid, "secret")

	r := startTestReceiver(t, DefaultConfig(), registry, tokens)
	registry.RegisterQuery(qid)

	client := NewControlClient()
	require.NoError(t, client.SendJdbcFinished(context.Background(), r.Addr().String(), qid, "secret"))

	require.Eventually(t, func() bool {
		st, err := registry.Stats(qid)
		return err == nil && st.JdbcFinished
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRowCountConservation(t *testing.T) {
	registry := bufferregistry.NewRegistry(8)
	tokens := NewTokenRegistry()
	qid := bufferregistry.QueryID("q-rows")
	tokens.Set(qid, "secret")

	r := startTestReceiver(t, DefaultConfig(), registry, tokens)
	registry.RegisterQuery(qid)

	conn := dial(t, r.Addr())
	writeHandshake(t, conn, "secret", string(qid), CompressionNone, simpleIntSchemaJSON())
	writeLenPrefixed(t, conn, buildRawIntBatch(1, 2, 3))
	writeLenPrefixed(t, conn, buildRawIntBatch(4, 5))
	writeU32(t, conn, 0)

	total := 0
	for total < 5 {
		batch, eos, ok := registry.Poll(qid, 2*time.Second)
		require.True(t, ok)
		require.False(t, eos)
		total += batch.RowCount
	}
	assert.Equal(t, 5, total)

	require.Eventually(t, func() bool {
		return r.MetricsSnapshot().RowsDecoded == 5
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 2, r.MetricsSnapshot().BatchesDecoded)
}

func TestAuthenticatedControlFrameSignalsJdbcFinished(t *testing.T) {
	registry := bufferregistry.NewRegistry(4)
	tokens := NewTokenRegistry()
	qid := bufferregistry.QueryID("q-control-ok")
	tokens.Set(qid, "secret")

	r := startTestReceiver(t, DefaultConfig(), registry, tokens)
	registry.RegisterQuery(qid)

	conn := dial(t, r.Addr())
	writeLenPrefixed(t, conn, []byte("secret"))
	writeU32(t, conn, controlMagic)
	writeLenPrefixed(t, conn, []byte(qid))
	writeU32(t, conn, jdbcFinishedCommand)
	conn.Close()

	require.Eventually(t, func() bool {
		st, err := registry.Stats(qid)
		return err == nil && st.JdbcFinished
	}, 2*time.Second, 10*time.Millisecond)
}
