package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, loc *time.Location, layout, value string) *time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation(layout, value, loc)
	require.NoError(t, err)
	return &parsed
}

func TestParseStayDates(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	testCases := []struct {
		name      string
		text      string
		loc       *time.Location
		expected  StayDates
		expectErr bool
	}{
		{
			name: "ISO dates with times",
			text: "Guest check-in 2024-08-10 15:00, check-out 2024-08-12 11:00. Towels needed.",
			loc:  time.UTC,
			expected: StayDates{
				CheckIn:  ts(t, time.UTC, "2006-01-02 15:04", "2024-08-10 15:00"),
				CheckOut: ts(t, time.UTC, "2006-01-02 15:04", "2024-08-12 11:00"),
			},
		},
		{
			name: "Dotted dates with klo",
			text: "Check in 10.8.2024 klo 16.00 ja checkout 12.8.2024 klo 11.00",
			loc:  helsinki,
			expected: StayDates{
				CheckIn:  ts(t, helsinki, "2.1.2006 15:04", "10.8.2024 16:00"),
				CheckOut: ts(t, helsinki, "2.1.2006 15:04", "12.8.2024 11:00"),
			},
		},
		{
			name: "Only check-out, date without time",
			text: "check-out on 2024-09-01",
			loc:  time.UTC,
			expected: StayDates{
				CheckOut: ts(t, time.UTC, "2006-01-02", "2024-09-01"),
			},
		},
		{
			name:     "No stay phrases",
			text:     "Replaced the shower head.",
			loc:      time.UTC,
			expected: StayDates{},
		},
		{
			name:      "Impossible date",
			text:      "check-in 32.13.2024",
			loc:       time.UTC,
			expectErr: true,
		},
		{
			name:      "Check-out before check-in",
			text:      "check-in 2024-08-12 check-out 2024-08-10",
			loc:       time.UTC,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStayDates(tc.text, tc.loc)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.Empty(), got.Empty())
			if tc.expected.CheckIn != nil {
				require.NotNil(t, got.CheckIn)
				assert.True(t, tc.expected.CheckIn.Equal(*got.CheckIn), "check-in: want %v got %v", tc.expected.CheckIn, got.CheckIn)
			} else {
				assert.Nil(t, got.CheckIn)
			}
			if tc.expected.CheckOut != nil {
				require.NotNil(t, got.CheckOut)
				assert.True(t, tc.expected.CheckOut.Equal(*got.CheckOut), "check-out: want %v got %v", tc.expected.CheckOut, got.CheckOut)
			} else {
				assert.Nil(t, got.CheckOut)
			}
		})
	}
}
