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
	"context"
	"encoding/binary"
	"net"
	"time"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/bufferregistry"
	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
)

// ControlClient sends control frames to a worker's bridge receiver. The
// orchestrator uses it to broadcast JDBC_FINISHED to every worker, itself
// included, once the producer-side statement returns.
type ControlClient struct {
	// DialTimeout bounds the TCP connect; zero means 10s.
	DialTimeout time.Duration
	// TokenConfigured mirrors the receiving bridge's token setting: when
	// true (the default deployment), the token field is written before the
	// control magic.
	TokenConfigured bool
}

// NewControlClient returns a client for token-authenticated bridges.
func NewControlClient() *ControlClient {
	return &ControlClient{DialTimeout: 10 * time.Second, TokenConfigured: true}
}

// SendJdbcFinished dials addr and delivers a JDBC_FINISHED control frame for
// qid, authenticated with token.
func (c *ControlClient) SendJdbcFinished(ctx context.Context, addr string, qid bufferregistry.QueryID, token string) error {
	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return connerr.Wrap(connerr.KindProducerExecFailure, err, "dialing bridge %s for control frame", addr)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(timeout))
	}

	var frame []byte
	if c.TokenConfigured {
		frame = appendLenPrefixed(frame, []byte(token))
	}
	frame = binary.BigEndian.AppendUint32(frame, controlMagic)
	frame = appendLenPrefixed(frame, []byte(qid))
	frame = binary.BigEndian.AppendUint32(frame, jdbcFinishedCommand)

	if _, err := conn.Write(frame); err != nil {
		return connerr.Wrap(connerr.KindProducerExecFailure, err, "writing control frame to bridge %s", addr)
	}
	return nil
}

func appendLenPrefixed(dst, b []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(b)))
	return append(dst, b...)
}
