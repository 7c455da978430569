package football_api_client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateTuple is the backend's encoding of an instant as
// [year, month(1-based), day, hour, minute]. Seconds are always zero.
// A JSON null decodes to a tuple with Valid == false.
type DateTuple struct {
	Time  time.Time
	Valid bool
}

// NewDateTuple truncates t to the minute in UTC.
func NewDateTuple(t time.Time) DateTuple {
	t = t.UTC()
	return DateTuple{
		Time:  time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC),
		Valid: true,
	}
}

// Ptr returns nil for an unset tuple.
func (d DateTuple) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func (d *DateTuple) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = DateTuple{}
		return nil
	}

	var parts []int
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("date tuple: %w", err)
	}
	if len(parts) != 5 {
		return fmt.Errorf("date tuple: want 5 elements, got %d", len(parts))
	}

	year, month, day, hour, minute := parts[0], parts[1], parts[2], parts[3], parts[4]
	if month < 1 || month > 12 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("date tuple: out of range %v", parts)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	if t.Day() != day {
		return fmt.Errorf("date tuple: invalid day %v", parts)
	}

	*d = DateTuple{Time: t, Valid: true}
	return nil
}

func (d DateTuple) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	t := d.Time.UTC()
	return json.Marshal([]int{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute()})
}
