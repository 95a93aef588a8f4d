package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	testCases := []struct {
		name        string
		spec        string
		expected    time.Time
		expectedErr bool
	}{
		{name: "minutes", spec: "PT5M", expected: now.Add(5 * time.Minute)},
		{name: "days and hours", spec: "P1DT2H", expected: now.Add(26 * time.Hour)},
		{name: "fraction seconds", spec: "PT1.5S", expected: now.Add(1500 * time.Millisecond)},
		{name: "comma fraction", spec: "PT0,5S", expected: now.Add(500 * time.Millisecond)},
		{name: "weeks", spec: "P2W", expected: now.Add(14 * 24 * time.Hour)},
		{name: "hour minute second", spec: "PT1H2M3S", expected: now.Add(time.Hour + 2*time.Minute + 3*time.Second)},
		{name: "go duration", spec: "90s", expected: now.Add(90 * time.Second)},
		{name: "instant", spec: "2026-03-01T08:00:00Z", expected: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		{name: "empty", spec: " ", expectedErr: true},
		{name: "no components", spec: "P", expectedErr: true},
		{name: "dangling T", spec: "PT", expectedErr: true},
		{name: "minutes without T", spec: "P5M", expectedErr: true},
		{name: "hours without T", spec: "P5H", expectedErr: true},
		{name: "missing unit", spec: "PT5", expectedErr: true},
		{name: "garbage", spec: "soon", expectedErr: true},
		{name: "negative", spec: "-5s", expectedErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Parse(tc.spec)
			if tc.expectedErr {
				assert.Error(t, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tc.expected, spec.Due(now))
			}
		})
	}
}
