// Copyright 2026 The Reflow Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package term

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Recursive-descent JSON parser producing terms, and the matching emitter.
// Parse failures are reported as (Null, offset-of-failure); the emitter
// returns a success marker so callers can detect unserializable subtrees.

// ParseJSON parses a complete JSON document into a term. On success it
// returns the term and the number of bytes consumed; on failure it returns
// Null and the byte offset at which parsing failed.
func (h *Heap) ParseJSON(bs []byte) (Handle, int) {
	p := &jsonParser{h: h, bs: bs}
	p.skipWhitespace()
	t, ok := p.parseValue()
	if !ok {
		return Null, p.pos
	}
	p.skipWhitespace()
	if p.pos != len(bs) {
		return Null, p.pos
	}
	return t, p.pos
}

type jsonParser struct {
	h   *Heap
	bs  []byte
	pos int
}

func (p *jsonParser) skipWhitespace() {
	for p.pos < len(p.bs) {
		switch p.bs[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) literal(s string, t Handle) (Handle, bool) {
	if len(p.bs)-p.pos < len(s) || string(p.bs[p.pos:p.pos+len(s)]) != s {
		return Null, false
	}
	p.pos += len(s)
	return t, true
}

func (p *jsonParser) parseValue() (Handle, bool) {
	if p.pos >= len(p.bs) {
		return Null, false
	}
	switch p.bs[p.pos] {
	case 'n':
		return p.literal("null", p.h.NewNil())
	case 't':
		return p.literal("true", p.h.NewBoolean(true))
	case 'f':
		return p.literal("false", p.h.NewBoolean(false))
	case '"':
		return p.parseString()
	case '[':
		return p.parseArray()
	case '{':
		return p.parseObject()
	default:
		return p.parseNumber()
	}
}

func (p *jsonParser) parseNumber() (Handle, bool) {
	start := p.pos
	if p.pos < len(p.bs) && p.bs[p.pos] == '-' {
		p.pos++
	}
	digits := 0
	for p.pos < len(p.bs) && p.bs[p.pos] >= '0' && p.bs[p.pos] <= '9' {
		p.pos++
		digits++
	}
	if digits == 0 {
		p.pos = start
		return Null, false
	}
	integral := true
	if p.pos < len(p.bs) && p.bs[p.pos] == '.' {
		integral = false
		p.pos++
		frac := 0
		for p.pos < len(p.bs) && p.bs[p.pos] >= '0' && p.bs[p.pos] <= '9' {
			p.pos++
			frac++
		}
		if frac == 0 {
			return Null, false
		}
	}
	if p.pos < len(p.bs) && (p.bs[p.pos] == 'e' || p.bs[p.pos] == 'E') {
		integral = false
		p.pos++
		if p.pos < len(p.bs) && (p.bs[p.pos] == '+' || p.bs[p.pos] == '-') {
			p.pos++
		}
		exp := 0
		for p.pos < len(p.bs) && p.bs[p.pos] >= '0' && p.bs[p.pos] <= '9' {
			p.pos++
			exp++
		}
		if exp == 0 {
			return Null, false
		}
	}
	text := string(p.bs[start:p.pos])
	if integral {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return p.h.NewInt(v), true
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Null, false
	}
	return p.h.NewFloat(v), true
}

func (p *jsonParser) parseString() (Handle, bool) {
	s, ok := p.parseStringBytes()
	if !ok {
		return Null, false
	}
	return p.h.NewString(s), true
}

func (p *jsonParser) parseStringBytes() (string, bool) {
	if p.pos >= len(p.bs) || p.bs[p.pos] != '"' {
		return "", false
	}
	p.pos++
	var sb []byte
	for p.pos < len(p.bs) {
		b := p.bs[p.pos]
		switch {
		case b == '"':
			p.pos++
			return string(sb), true
		case b == '\\':
			p.pos++
			if p.pos >= len(p.bs) {
				return "", false
			}
			switch p.bs[p.pos] {
			case '"':
				sb = append(sb, '"')
			case '\\':
				sb = append(sb, '\\')
			case '/':
				sb = append(sb, '/')
			case 'b':
				sb = append(sb, '\b')
			case 'f':
				sb = append(sb, '\f')
			case 'n':
				sb = append(sb, '\n')
			case 'r':
				sb = append(sb, '\r')
			case 't':
				sb = append(sb, '\t')
			case 'u':
				r, ok := p.parseUnicodeEscape()
				if !ok {
					return "", false
				}
				var tmp [4]byte
				sb = append(sb, tmp[:utf8.EncodeRune(tmp[:], r)]...)
				continue
			default:
				return "", false
			}
			p.pos++
		case b < 0x20:
			return "", false
		default:
			sb = append(sb, b)
			p.pos++
		}
	}
	return "", false
}

// parseUnicodeEscape decodes \uHHHH with surrogate-pair handling; p.pos is on
// the 'u'. On success p.pos is past the final hex digit.
func (p *jsonParser) parseUnicodeEscape() (rune, bool) {
	u1, ok := p.parseHex4()
	if !ok {
		return 0, false
	}
	if u1 >= 0xD800 && u1 <= 0xDBFF {
		// high surrogate: require a low surrogate to follow
		if p.pos+1 < len(p.bs) && p.bs[p.pos] == '\\' && p.bs[p.pos+1] == 'u' {
			p.pos++ // the backslash; parseHex4 expects to sit on 'u'
			u2, ok := p.parseHex4()
			if !ok {
				return 0, false
			}
			if u2 >= 0xDC00 && u2 <= 0xDFFF {
				return 0x10000 + (rune(u1-0xD800) << 10) + rune(u2-0xDC00), true
			}
		}
		return utf8.RuneError, true
	}
	if u1 >= 0xDC00 && u1 <= 0xDFFF {
		return utf8.RuneError, true
	}
	return rune(u1), true
}

// parseHex4 decodes the four hex digits after a 'u'; p.pos is on the 'u'.
func (p *jsonParser) parseHex4() (uint32, bool) {
	if p.pos+4 >= len(p.bs) {
		return 0, false
	}
	var v uint32
	for i := 1; i <= 4; i++ {
		c := p.bs[p.pos+i]
		switch {
		case c >= '0' && c <= '9':
			v = v<<4 | uint32(c-'0')
		case c >= 'a' && c <= 'f':
			v = v<<4 | uint32(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v<<4 | uint32(c-'A'+10)
		default:
			return 0, false
		}
	}
	p.pos += 5
	return v, true
}

func (p *jsonParser) parseArray() (Handle, bool) {
	p.pos++ // '['
	p.skipWhitespace()
	if p.pos < len(p.bs) && p.bs[p.pos] == ']' {
		p.pos++
		return p.h.NewList(nil), true
	}
	var items []Handle
	for {
		p.skipWhitespace()
		v, ok := p.parseValue()
		if !ok {
			return Null, false
		}
		items = append(items, v)
		p.skipWhitespace()
		if p.pos >= len(p.bs) {
			return Null, false
		}
		switch p.bs[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return p.h.NewList(items), true
		default:
			return Null, false
		}
	}
}

func (p *jsonParser) parseObject() (Handle, bool) {
	p.pos++ // '{'
	p.skipWhitespace()
	if p.pos < len(p.bs) && p.bs[p.pos] == '}' {
		p.pos++
		return p.h.NewRecord(p.h.NewList(nil), p.h.NewList(nil)), true
	}
	var keys, values []Handle
	for {
		p.skipWhitespace()
		k, ok := p.parseString()
		if !ok {
			return Null, false
		}
		p.skipWhitespace()
		if p.pos >= len(p.bs) || p.bs[p.pos] != ':' {
			return Null, false
		}
		p.pos++
		p.skipWhitespace()
		v, ok := p.parseValue()
		if !ok {
			return Null, false
		}
		keys = append(keys, k)
		values = append(values, v)
		p.skipWhitespace()
		if p.pos >= len(p.bs) {
			return Null, false
		}
		switch p.bs[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return p.h.NewRecord(p.h.NewList(keys), p.h.NewList(values)), true
		default:
			return Null, false
		}
	}
}

// ToJSON serializes a term following JSON conventions: records become
// objects, lists arrays, scalars themselves. Non-representable floats
// (NaN/Inf) emit null. Returns false when the term (or a subterm) has no
// JSON representation; the buffer contents are then unspecified.
func (h *Heap) ToJSON(t Handle, buf *bytes.Buffer) bool {
	switch h.TypeOf(t) {
	case TagNil:
		buf.WriteString("null")
	case TagBoolean:
		if h.BooleanValue(t) {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case TagInt:
		buf.WriteString(strconv.FormatInt(h.IntValue(t), 10))
	case TagFloat:
		v := h.FloatValue(t)
		if v != v || math.IsInf(v, 0) {
			buf.WriteString("null")
			return true
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			// keep integral floats distinct from ints across a round-trip
			s += ".0"
		}
		buf.WriteString(s)
	case TagString:
		writeJSONString(buf, h.StringValue(t))
	case TagList:
		buf.WriteByte('[')
		n := h.ListLen(t)
		for i := uint32(0); i < n; i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if !h.ToJSON(h.ListGet(t, i), buf) {
				return false
			}
		}
		buf.WriteByte(']')
	case TagRecord:
		buf.WriteByte('{')
		keys, values := h.RecordKeys(t), h.RecordValues(t)
		n := h.RecordLen(t)
		for i := uint32(0); i < n; i++ {
			k := h.ListGet(keys, i)
			if h.TypeOf(k) != TagString {
				return false
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, h.StringValue(k))
			buf.WriteByte(':')
			if !h.ToJSON(h.ListGet(values, i), buf) {
				return false
			}
		}
		buf.WriteByte('}')
	default:
		return false
	}
	return true
}

func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b == '"':
			buf.WriteString("\\\"")
		case b == '\\':
			buf.WriteString("\\\\")
		case b == '\n':
			buf.WriteString("\\n")
		case b == '\r':
			buf.WriteString("\\r")
		case b == '\t':
			buf.WriteString("\\t")
		case b < 0x20:
			const hex = "0123456789abcdef"
			buf.WriteString("\\u00")
			buf.WriteByte(hex[b>>4])
			buf.WriteByte(hex[b&0xf])
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte('"')
}
