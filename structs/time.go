package structs

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Time decodes API timestamps with or without a zone; zoneless ones are UTC.
type Time struct {
	time.Time
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.Errorf("timestamp %s is not a string", data)
	}
	raw := string(data[1 : len(data)-1])
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return errors.Errorf("unrecognised timestamp %q", raw)
}

func (t Time) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}

func (t Time) DateTime() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func (t Time) Date() string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
