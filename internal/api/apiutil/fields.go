package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Hanzoho/meetingroom-server/internal/availability"
)

const roomIDQueryKey = "room_id"

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", field)
	}
	return value, nil
}

func RoomIDFromQuery(r *http.Request) (int64, error) {
	return ParsePositiveInt64Field(r.URL.Query().Get(roomIDQueryKey), roomIDQueryKey)
}

func RoomIDFromRequest(r *http.Request, fromBody *int64) (int64, error) {
	if fromBody != nil {
		if *fromBody <= 0 {
			return 0, fmt.Errorf("room_id must be a positive integer")
		}
		return *fromBody, nil
	}
	return RoomIDFromQuery(r)
}

// ParseMonth parses a "YYYY-MM" month query value.
func ParseMonth(raw string) (int, time.Month, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, fmt.Errorf("month is required")
	}
	parsed, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be in YYYY-MM form")
	}
	return parsed.Year(), parsed.Month(), nil
}

// ParseDateField parses one YYYY-MM-DD request field.
func ParseDateField(raw string, field string) (availability.Date, error) {
	date, err := availability.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return availability.Date{}, fmt.Errorf("%s must be a valid YYYY-MM-DD date", field)
	}
	return date, nil
}

// ParseTimeField validates one HH:MM request field.
func ParseTimeField(raw string, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := availability.MinutesSinceMidnight(raw); err != nil {
		return "", fmt.Errorf("%s must be a valid HH:MM time", field)
	}
	return raw, nil
}

// ParseWindow validates a start/end pair and requires a positive-length window.
func ParseWindow(rawStart, rawEnd string) (string, string, error) {
	start, err := ParseTimeField(rawStart, "start_time")
	if err != nil {
		return "", "", err
	}
	end, err := ParseTimeField(rawEnd, "end_time")
	if err != nil {
		return "", "", err
	}
	startMinutes, _ := availability.MinutesSinceMidnight(start)
	endMinutes, _ := availability.MinutesSinceMidnight(end)
	if endMinutes <= startMinutes {
		return "", "", fmt.Errorf("end_time must be after start_time")
	}
	return start, end, nil
}
