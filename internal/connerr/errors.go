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

// Package connerr defines the error taxonomy the ingestion core surfaces to
// the consumer engine: a typed error carrying a stable Kind (backed by a
// grpc status code so the engine SPI boundary can translate it) plus a
// message, never a bare error string.
package connerr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Kind classifies the failures the ingestion core can report.
type Kind int

const (
	// KindUnknown is the zero value, so a missing Kind never silently
	// matches AuthFailure. It is also used for failures outside the
	// taxonomy (an unregistered query, no active workers, token generation,
	// hostname resolution).
	KindUnknown Kind = iota
	KindAuthFailure
	KindProtocolDecodeError
	KindProducerExecFailure
	KindTimeout
	KindCancellation
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailure:
		return "AuthFailure"
	case KindProtocolDecodeError:
		return "ProtocolDecodeError"
	case KindProducerExecFailure:
		return "ProducerExecFailure"
	case KindTimeout:
		return "Timeout"
	case KindCancellation:
		return "Cancellation"
	default:
		return "Unknown"
	}
}

// Code returns the grpc status code the engine SPI boundary would map this
// Kind to.
func (k Kind) Code() codes.Code {
	switch k {
	case KindAuthFailure:
		return codes.Unauthenticated
	case KindProtocolDecodeError:
		return codes.InvalidArgument
	case KindProducerExecFailure:
		return codes.Internal
	case KindTimeout:
		return codes.DeadlineExceeded
	case KindCancellation:
		return codes.Canceled
	default:
		return codes.Unknown
	}
}

// Error is the typed error every ingestion-core component returns.
type Error struct {
	Kind Kind
	msg  string
	wrap error
}

func (e *Error) Error() string {
	if e.wrap != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.wrap)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.wrap }

// New builds an Error of the given Kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given Kind around an existing error.
func Wrap(kind Kind, wrapped error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), wrap: wrapped}
}

// Is reports whether err is a connerr.Error of the given Kind.
func Is(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}
