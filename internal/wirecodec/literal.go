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

package wirecodec

import (
	"fmt"
	"time"
)

// FormatDateLiteral renders a producer SQL DATE literal, e.g. DATE '2099-12-31'.
func FormatDateLiteral(t time.Time) string {
	return fmt.Sprintf("DATE '%s'", t.UTC().Format("2006-01-02"))
}

// FormatTimestampLiteral renders a producer SQL TIMESTAMP literal padded to
// microsecond precision, e.g. TIMESTAMP '2099-12-31 23:59:59.000000'.
func FormatTimestampLiteral(t time.Time) string {
	return fmt.Sprintf("TIMESTAMP '%s.%06d'", t.UTC().Format("2006-01-02 15:04:05"), t.UTC().Nanosecond()/1000)
}
