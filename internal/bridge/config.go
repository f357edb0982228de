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

// Package bridge implements the BridgeReceiver: the TCP listener each
// worker runs to accept producer-side connections, authenticate them,
// demultiplex them by query id, decode their batches and hand the results to
// a bufferregistry.Registry.
package bridge

import "time"

// Config holds the recognized bridge configuration keys (bridge-port,
// socket-receive-buffer-size, token, producer-timezone). cmd/bridge-server
// sets BridgePort and StaticToken from its command-line flags; no
// configuration-file layer parses into this struct.
type Config struct {
	// BridgePort is the TCP port the receiver listens on.
	BridgePort int
	// SocketReceiveBufferBytes is SO_RCVBUF for every accepted connection.
	SocketReceiveBufferBytes int
	// MaxConcurrentConnections bounds the per-connection handler pool;
	// excess connections block on accept rather than being dropped.
	MaxConcurrentConnections int
	// StaticToken is the globally configured fallback token ("token" /
	// "token-script"); empty disables the fallback.
	StaticToken string
	// TokenConfigured mirrors the wire grammar's "present iff token
	// configured": when false, no token field is read off the wire at all
	// and every connection is implicitly authenticated.
	TokenConfigured bool
	// HandshakeTimeout bounds how long a single connection may spend in the
	// Auth/QueryId/CompressionFlag/SchemaHandshake states before the
	// receiver gives up on it.
	HandshakeTimeout time.Duration
	// ProducerUTCOffset is the producer-timezone offset applied to
	// normalize decoded TIME/TIMESTAMP values to UTC. Zero means the
	// producer already speaks UTC.
	ProducerUTCOffset time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BridgePort:               9999,
		SocketReceiveBufferBytes: 4 << 20,
		MaxConcurrentConnections: 256,
		HandshakeTimeout:         30 * time.Second,
		TokenConfigured:          true,
	}
}

// controlMagic is the sentinel qid length that marks a control handshake
// instead of a data stream.
const controlMagic = 0xCAFEFEED

// maxFrameLen caps any length-prefixed field or batch frame. A u32 straight
// off the wire is attacker-controlled; without a cap a single bogus length
// would allocate 4 GiB. Deliberately below controlMagic so a data read can
// never swallow the control sentinel as a length.
const maxFrameLen = 256 << 20

// jdbcFinishedCommand is the only control command the bridge understands.
const jdbcFinishedCommand = 1

// compression flags carried in the handshake.
const (
	CompressionNone = 0
	CompressionZlib = 1
	CompressionLZ4  = 2
)
