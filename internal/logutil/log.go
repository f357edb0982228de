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

// Package logutil is a thin leveled wrapper over glog. Callers never import
// glog directly, so the masking rule in Redactf is the only path a secret
// can take to a log line.
package logutil

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

// DynamicTokenMask is substituted for any dynamic bridge token that would
// otherwise reach a log line. Tokens never appear in logs in plaintext.
const DynamicTokenMask = "***DYNAMIC_TOKEN***"

func Infof(format string, args ...interface{})    { glog.InfoDepth(1, fmt.Sprintf(format, args...)) }
func Warningf(format string, args ...interface{}) { glog.WarningDepth(1, fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...interface{})   { glog.ErrorDepth(1, fmt.Sprintf(format, args...)) }

// Redactf logs like Errorf/Warningf but replaces any occurrence of token in
// format's rendered arguments with DynamicTokenMask before it reaches glog.
func Redactf(token, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if token != "" {
		msg = redact(msg, token)
	}
	glog.ErrorDepth(1, msg)
}

func redact(msg, token string) string {
	return strings.ReplaceAll(msg, token, DynamicTokenMask)
}

// Flush flushes any pending log I/O. Call on process shutdown.
func Flush() { glog.Flush() }
