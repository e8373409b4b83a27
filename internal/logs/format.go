package logs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eris/internal/logging"
)

// Format renders one JSON log record as
// "15:04:05 INFO  [component] message key=value ...". Attributes keep the
// order they were logged in. Lines that are not JSON objects are returned
// unchanged.
func Format(line string) string {
	fields, ok := decodeOrdered(line)
	if !ok {
		return line
	}

	var ts, level, msg, component string
	attrs := make([]string, 0, len(fields))
	for _, f := range fields {
		switch f.key {
		case "ts":
			ts = f.plain()
		case "level":
			level = strings.ToUpper(f.plain())
		case "msg":
			msg = f.plain()
		case "component":
			component = f.plain()
		case "src":
		default:
			attrs = append(attrs, f.key+"="+f.quoted())
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		ts = t.Local().Format(time.TimeOnly)
	}

	var b strings.Builder
	if ts != "" {
		b.WriteString(ts)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", level)
	if component != "" {
		b.WriteString("[" + component + "] ")
	}
	b.WriteString(msg)
	for _, attr := range attrs {
		b.WriteByte(' ')
		b.WriteString(attr)
	}
	return b.String()
}

type field struct {
	key   string
	value json.RawMessage
}

// plain returns string values unquoted, for the fixed header fields.
func (f field) plain() string {
	var s string
	if err := json.Unmarshal(f.value, &s); err == nil {
		return s
	}
	return string(f.value)
}

// quoted returns attribute values the way the console handler prints them.
func (f field) quoted() string {
	var s string
	if err := json.Unmarshal(f.value, &s); err == nil {
		return logging.QuoteValue(s)
	}
	return string(f.value)
}

func decodeOrdered(line string) ([]field, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false
		}
		fields = append(fields, field{key: key, value: raw})
	}
	return fields, true
}
