package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"2025-10-23",
		"2025-01-01",
		"2024-02-29",
		"1999-12-31",
		"2030-06-09",
	} {
		d, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, d.String())
	}
}

func TestParse_RoundTripEveryDayOfLeapYear(t *testing.T) {
	d := MustParse("2024-01-01")
	for i := 0; i < 366; i++ {
		back, err := Parse(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, back)
		d = d.AddDays(1)
	}
	assert.Equal(t, "2025-01-01", d.String())
}

func TestParse_RollsOverShortMonths(t *testing.T) {
	assert.Equal(t, "2025-05-01", MustParse("2025-04-31").String())
	assert.Equal(t, "2025-03-03", MustParse("2025-02-31").String())
	assert.Equal(t, "2024-03-01", MustParse("2024-02-30").String())
	assert.Equal(t, MustParse("2025-04-30").AddDays(1), MustParse("2025-04-31"))
}

func TestParse_Rejects(t *testing.T) {
	for _, s := range []string{
		"",
		"2025-1-01",
		"2025/10/23",
		"20251023",
		"2025-10-2x",
		"abcd-10-23",
		"2025-00-10",
		"2025-13-01",
		"2025-10-00",
		"2025-10-32",
		"2025-10-23T00:00:00Z",
	} {
		_, err := Parse(s)
		require.Error(t, err, s)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe, s)
		assert.Equal(t, s, fe.Input)
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
}

func TestFormat_ZeroPads(t *testing.T) {
	assert.Equal(t, "2025-02-03", New(2025, time.February, 3).String())
	assert.Equal(t, "0999-01-01", New(999, time.January, 1).String())
}

func TestEquality_IndependentOfOrigin(t *testing.T) {
	parsed := MustParse("2025-10-23")
	built := New(2025, time.October, 23)
	rolled := New(2025, time.September, 53)
	loc := time.FixedZone("UTC+14", 14*3600)
	local := FromTime(time.Date(2025, time.October, 23, 0, 0, 0, 0, loc))

	assert.Equal(t, parsed, built)
	assert.True(t, parsed == rolled)
	assert.True(t, parsed == local)
}

func TestFromTime_KeepsLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC-10", -10*3600)
	late := time.Date(2025, time.October, 23, 23, 30, 0, 0, loc)
	assert.Equal(t, "2025-10-23", FromTime(late).String())

	early := time.Date(2025, time.October, 23, 0, 0, 0, 0, time.FixedZone("UTC+9", 9*3600))
	assert.Equal(t, "2025-10-23", FromTime(early).String())
}

func TestAddDays(t *testing.T) {
	d := MustParse("2025-12-30")
	assert.Equal(t, "2026-01-02", d.AddDays(3).String())
	assert.Equal(t, "2025-11-30", d.AddDays(-30).String())
	assert.Equal(t, "2024-02-29", MustParse("2024-03-01").AddDays(-1).String())
	assert.Equal(t, d, d.AddDays(0))
}

func TestAddMonths_ClampsToLastDay(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-03-31", 1, "2025-04-30"},
		{"2025-03-31", -1, "2025-02-28"},
		{"2025-01-15", 1, "2025-02-15"},
		{"2025-11-30", 3, "2026-02-28"},
		{"2025-10-23", -12, "2024-10-23"},
		{"2025-10-23", 0, "2025-10-23"},
		{"2025-05-31", -14, "2024-03-31"},
	}
	for _, tc := range cases {
		got := MustParse(tc.in).AddMonths(tc.n)
		assert.Equal(t, tc.want, got.String(), "%s %+d months", tc.in, tc.n)
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 28, MustParse("2025-02-10").DaysInMonth())
	assert.Equal(t, 29, MustParse("2024-02-10").DaysInMonth())
	assert.Equal(t, 31, MustParse("2025-12-01").DaysInMonth())
	assert.Equal(t, 30, MustParse("2025-04-01").DaysInMonth())
}

func TestCompare(t *testing.T) {
	a := MustParse("2025-10-23")
	b := MustParse("2025-10-24")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, MustParse("2024-12-31").Compare(a))
	assert.Equal(t, 1, a.DaysUntil(b))
	assert.Equal(t, -365, MustParse("2025-01-01").DaysUntil(MustParse("2024-01-02")))
}

func TestMondayOffset(t *testing.T) {
	assert.Equal(t, 0, MustParse("2025-10-20").MondayOffset())
	assert.Equal(t, 3, MustParse("2025-10-23").MondayOffset())
	assert.Equal(t, 6, MustParse("2025-10-26").MondayOffset())
}

func TestTodayIn(t *testing.T) {
	loc := time.FixedZone("test", 5*3600)
	before := FromTime(time.Now().In(loc))
	got := TodayIn(loc)
	after := FromTime(time.Now().In(loc))
	assert.True(t, got == before || got == after)
	assert.False(t, TodayIn(nil).IsZero())
}

func TestDate_TextEncoding(t *testing.T) {
	type doc struct {
		Day  Date `json:"day" yaml:"day"`
		Next Date `json:"next,omitempty" yaml:"next,omitempty"`
	}

	out, err := json.Marshal(doc{Day: MustParse("2025-10-23")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2025-10-23","next":""}`, string(out))

	var in doc
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2025-02-03"}`), &in))
	assert.Equal(t, New(2025, time.February, 3), in.Day)
	assert.True(t, in.Next.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"day":"03/02/2025"}`), &in))

	var y doc
	require.NoError(t, yaml.Unmarshal([]byte("day: 2025-10-23\n"), &y))
	assert.Equal(t, MustParse("2025-10-23"), y.Day)
}
