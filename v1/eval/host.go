// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eval

import (
	"io"
	"math"
	"time"
)

// Host supplies the imports the core requires from its embedder:
// floating-point transcendentals, date parsing/formatting, and a byte-output
// sink for the print builtin. Embedders override individual hooks as needed.
type Host struct {
	Sin  func(float64) float64
	Cos  func(float64) float64
	Tan  func(float64) float64
	Log  func(float64) float64
	Exp  func(float64) float64
	Sqrt func(float64) float64
	Pow  func(float64, float64) float64

	// DateParse parses a date string to milliseconds since the Unix epoch.
	DateParse func([]byte) (int64, bool)

	// DateFormatISO renders epoch milliseconds as an ISO-8601 UTC string.
	DateFormatISO func(int64) []byte

	// Output receives the bytes of the print builtin. May be nil.
	Output io.Writer
}

// dateLayouts accepted by the default DateParse, most specific first.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DefaultHost returns hooks backed by the standard library, with output
// discarded.
func DefaultHost() *Host {
	return &Host{
		Sin:  math.Sin,
		Cos:  math.Cos,
		Tan:  math.Tan,
		Log:  math.Log,
		Exp:  math.Exp,
		Sqrt: math.Sqrt,
		Pow:  math.Pow,
		DateParse: func(bs []byte) (int64, bool) {
			s := string(bs)
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UnixMilli(), true
				}
			}
			return 0, false
		},
		DateFormatISO: func(millis int64) []byte {
			return []byte(time.UnixMilli(millis).UTC().Format("2006-01-02T15:04:05.000Z"))
		},
		Output: io.Discard,
	}
}
