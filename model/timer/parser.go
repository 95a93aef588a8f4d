// Package timer parses timer due specifications.
package timer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/viant/parsly"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
	// year is a calendar approximation; definitions should prefer days
	year = 365 * day
)

// Spec is a parsed due specification: either a relative duration or an instant
type Spec struct {
	Text     string
	Duration time.Duration
	At       *time.Time
}

// Due returns the absolute due time relative to now
func (s *Spec) Due(now time.Time) time.Time {
	if s.At != nil {
		return *s.At
	}
	return now.Add(s.Duration)
}

// Parse parses an ISO-8601 duration (PT5M, P1DT2H, PT1.5S), a Go duration
// (90s, 1h30m) or an RFC3339 instant.
func Parse(text string) (*Spec, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("timer spec was empty")
	}
	if text[0] == 'P' {
		duration, err := parseISODuration([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("invalid timer duration %q: %w", text, err)
		}
		return &Spec{Text: text, Duration: duration}, nil
	}
	if duration, err := time.ParseDuration(text); err == nil {
		if duration < 0 {
			return nil, fmt.Errorf("negative timer duration %q", text)
		}
		return &Spec{Text: text, Duration: duration}, nil
	}
	at, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil, fmt.Errorf("unsupported timer spec %q", text)
	}
	return &Spec{Text: text, At: &at}, nil
}

func parseISODuration(input []byte) (time.Duration, error) {
	cursor := parsly.NewCursor("", input, 0)
	matched := cursor.MatchOne(periodToken)
	if matched.Code != periodToken.Code {
		return 0, cursor.NewError(periodToken)
	}
	var total time.Duration
	inTime := false
	components := 0
	for cursor.Pos < cursor.InputSize {
		if !inTime {
			if matched = cursor.MatchOne(timeToken); matched.Code == timeToken.Code {
				inTime = true
				if cursor.Pos >= cursor.InputSize {
					return 0, fmt.Errorf("missing time component after T")
				}
				continue
			}
		}
		matched = cursor.MatchOne(numberToken)
		if matched.Code != numberToken.Code {
			return 0, cursor.NewError(numberToken)
		}
		value, err := strconv.ParseFloat(strings.Replace(matched.Text(cursor), ",", ".", 1), 64)
		if err != nil {
			return 0, err
		}
		matched = cursor.MatchOne(unitToken)
		if matched.Code != unitToken.Code {
			return 0, cursor.NewError(unitToken)
		}
		unit, err := unitOf(matched.Text(cursor)[0], inTime)
		if err != nil {
			return 0, err
		}
		total += time.Duration(value * float64(unit))
		components++
	}
	if components == 0 {
		return 0, fmt.Errorf("duration has no components")
	}
	return total, nil
}

func unitOf(designator byte, inTime bool) (time.Duration, error) {
	if inTime {
		switch designator {
		case 'H':
			return time.Hour, nil
		case 'M':
			return time.Minute, nil
		case 'S':
			return time.Second, nil
		}
		return 0, fmt.Errorf("designator %c is not a time unit", designator)
	}
	switch designator {
	case 'Y':
		return year, nil
	case 'W':
		return week, nil
	case 'D':
		return day, nil
	}
	return 0, fmt.Errorf("designator %c requires the T separator", designator)
}
