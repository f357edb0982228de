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
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/logutil"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/rowdecoder"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/schema"
)

var unauthorizedReply = []byte("ERROR: UNAUTHORIZED")

// connHandler runs the per-connection state machine: Auth -> QueryId ->
// CompressionFlag -> SchemaHandshake -> Registered -> Streaming ->
// Terminated.
type connHandler struct {
	r              *Receiver
	conn           net.Conn
	presentedToken string
}

func (h *connHandler) serve() {
	defer h.conn.Close()

	// Bound the Auth/QueryId/CompressionFlag/SchemaHandshake states so a slow
	// or stalled peer can't hold a pooled handler goroutine forever before
	// ever registering a query; cleared once Streaming begins since a batch
	// stream is expected to be long-lived.
	if h.r.cfg.HandshakeTimeout > 0 {
		h.conn.SetReadDeadline(time.Now().Add(h.r.cfg.HandshakeTimeout))
	}

	presentedToken, err := h.readAuthBytes()
	if err != nil {
		logutil.Warningf("bridge: handshake auth read failed from %s: %v", h.conn.RemoteAddr(), err)
		return
	}
	h.presentedToken = presentedToken

	qidBytes, isControl, err := h.readQueryIDOrControlMagic()
	if err != nil {
		logutil.Warningf("bridge: handshake qid read failed from %s: %v", h.conn.RemoteAddr(), err)
		return
	}

	if isControl {
		h.handleControlFrame()
		return
	}

	qid := bufferregistry.QueryID(qidBytes)
	if h.r.cfg.TokenConfigured && !authenticate(h.r.tokens, h.r.cfg.StaticToken, qid, h.presentedToken) {
		h.conn.Write(unauthorizedReply)
		atomic.AddInt64(&h.r.metrics.ConnectionsRejected, 1)
		logutil.Warningf("bridge: rejected connection for query %s: invalid token (%s)", qid, logutil.DynamicTokenMask)
		return
	}

	h.streamData(qid)
}

// handleControlFrame reads the control-frame body: [u32 len][qid_bytes]
// [u32 command]. The frame is itself token-authenticated against the named
// qid; an unauthenticated control frame is logged and dropped without
// effect, so a forged JDBC_FINISHED can never signal end-of-stream.
func (h *connHandler) handleControlFrame() {
	qidBytes, err := h.readLenPrefixed()
	if err != nil {
		logutil.Warningf("bridge: control frame qid read failed from %s: %v", h.conn.RemoteAddr(), err)
		return
	}
	qid := bufferregistry.QueryID(qidBytes)

	var cmdBuf [4]byte
	if _, err := io.ReadFull(h.conn, cmdBuf[:]); err != nil {
		logutil.Warningf("bridge: control frame command read failed from %s: %v", h.conn.RemoteAddr(), err)
		return
	}
	command := binary.BigEndian.Uint32(cmdBuf[:])

	if h.r.cfg.TokenConfigured && !authenticate(h.r.tokens, h.r.cfg.StaticToken, qid, h.presentedToken) {
		logutil.Warningf("bridge: dropped unauthenticated control frame for query %s (%s)", qid, logutil.DynamicTokenMask)
		return
	}

	switch command {
	case jdbcFinishedCommand:
		h.r.registry.SignalJdbcFinished(qid)
	default:
		logutil.Warningf("bridge: unknown control command %d for query %s", command, qid)
	}
}

// streamData implements the CompressionFlag -> SchemaHandshake -> Registered
// -> Streaming -> Terminated states.
func (h *connHandler) streamData(qid bufferregistry.QueryID) {
	compression, err := h.readU32()
	if err != nil {
		logutil.Warningf("bridge: compression flag read failed for query %s: %v", qid, err)
		return
	}

	schemaBytes, err := h.readLenPrefixed()
	if err != nil {
		logutil.Warningf("bridge: schema handshake read failed for query %s: %v", qid, err)
		return
	}
	var wireSchema schema.WireSchema
	if err := json.Unmarshal(schemaBytes, &wireSchema); err != nil {
		logutil.Warningf("bridge: schema handshake parse failed for query %s: %v", qid, err)
		return
	}
	sc := wireSchema.ToColumnSchema()

	if h.r.cfg.HandshakeTimeout > 0 {
		h.conn.SetReadDeadline(time.Time{})
	}

	h.r.registry.RegisterQuery(qid)
	h.r.registry.IncrementConnections(qid)
	defer h.r.registry.DecrementConnections(qid)

	for {
		frameLen, err := h.readU32()
		if err != nil {
			logutil.Warningf("bridge: frame length read failed for query %s: %v", qid, err)
			return
		}
		if frameLen == 0 {
			return // END sentinel: graceful end-of-connection
		}
		if frameLen > maxFrameLen {
			logutil.Warningf("bridge: oversized frame (%d bytes) for query %s", frameLen, qid)
			return
		}
		raw := make([]byte, frameLen)
		if _, err := io.ReadFull(h.conn, raw); err != nil {
			logutil.Warningf("bridge: frame body read failed for query %s: %v", qid, err)
			return
		}
		payload, err := decompress(compression, raw)
		if err != nil {
			logutil.Warningf("bridge: decompression failed for query %s: %v", qid, err)
			return
		}
		batch, err := rowdecoder.DecodeWithOptions(payload, sc, rowdecoder.Options{ProducerUTCOffset: h.r.cfg.ProducerUTCOffset})
		if err != nil {
			logutil.Warningf("bridge: decode failed for query %s: %v", qid, err)
			return
		}
		rows := batch.RowCount
		h.r.registry.PushData(qid, batch)
		atomic.AddInt64(&h.r.metrics.BatchesDecoded, 1)
		atomic.AddInt64(&h.r.metrics.RowsDecoded, int64(rows))
	}
}

// --- framing helpers --------------------------------------------------------

func (h *connHandler) readU32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(h.conn, buf[:]); err != nil {
		return 0, connerr.Wrap(connerr.KindProtocolDecodeError, err, "u32 read")
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (h *connHandler) readLenPrefixed() ([]byte, error) {
	n, err := h.readU32()
	if err != nil {
		return nil, err
	}
	if n > maxFrameLen {
		return nil, connerr.New(connerr.KindProtocolDecodeError, "len-prefixed field too large (%d bytes)", n)
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(h.conn, buf); err != nil {
			return nil, connerr.Wrap(connerr.KindProtocolDecodeError, err, "len-prefixed body")
		}
	}
	return buf, nil
}

// readAuthBytes reads the optional token field. It is present on the wire
// iff a token is configured bridge-wide; when auth isn't required at all,
// no bytes are sent.
func (h *connHandler) readAuthBytes() (string, error) {
	if !h.r.cfg.TokenConfigured {
		return "", nil
	}
	b, err := h.readLenPrefixed()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readQueryIDOrControlMagic reads the qid length+bytes field, recognizing the
// 0xCAFEFEED magic length as "this is a control frame, not a data stream".
func (h *connHandler) readQueryIDOrControlMagic() ([]byte, bool, error) {
	n, err := h.readU32()
	if err != nil {
		return nil, false, err
	}
	if n == controlMagic {
		return nil, true, nil
	}
	if n > maxFrameLen {
		return nil, false, connerr.New(connerr.KindProtocolDecodeError, "qid field too large (%d bytes)", n)
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(h.conn, buf); err != nil {
			return nil, false, connerr.Wrap(connerr.KindProtocolDecodeError, err, "qid body")
		}
	}
	return buf, false, nil
}
