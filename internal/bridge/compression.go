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
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/vijayshc/trino-teradata-connector-sub001/internal/connerr"
)

// decompress expands a single batch frame per its compression flag. flag==0
// returns raw unchanged.
func decompress(flag uint32, raw []byte) ([]byte, error) {
	switch flag {
	case CompressionNone:
		return raw, nil
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, connerr.Wrap(connerr.KindProtocolDecodeError, err, "zlib frame header")
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, connerr.Wrap(connerr.KindProtocolDecodeError, err, "zlib frame body")
		}
		return out, nil
	case CompressionLZ4:
		lr := lz4.NewReader(bytes.NewReader(raw))
		out, err := io.ReadAll(lr)
		if err != nil {
			return nil, connerr.Wrap(connerr.KindProtocolDecodeError, err, "lz4 frame body")
		}
		return out, nil
	default:
		return nil, connerr.New(connerr.KindProtocolDecodeError, "unknown compression flag %d", flag)
	}
}
