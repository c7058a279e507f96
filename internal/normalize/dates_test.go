package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDates(t *testing.T, layouts []string) Dates {
	t.Helper()
	d, err := NewDates(layouts)
	require.NoError(t, err)
	return d
}

func TestDates_Recognized(t *testing.T) {
	d := mustDates(t, nil)
	cases := map[string]time.Time{
		"Mar 4, 2021":       date(2021, 3, 4),
		"Mar 4 2021":        date(2021, 3, 4),
		"  Nov   1,  2000 ": date(2000, 11, 1),
		"March 4, 2021":     date(2021, 3, 4),
		"2021-03-04":        date(2021, 3, 4),
		"2021-3-4":          date(2021, 3, 4),
		"2021/3/4":          date(2021, 3, 4),
		"4 Mar, 2021":       date(2021, 3, 4),
		"4 Mar 2021":        date(2021, 3, 4),
		"04.03.2021":        date(2021, 3, 4),
		"Feb 29, 2020":      date(2020, 2, 29),
		"Sept 4, 2021":      date(2021, 9, 4),
		"Sept. 4, 2021":     date(2021, 9, 4),
		"4 Sept, 2021":      date(2021, 9, 4),
		"September 4, 2021": date(2021, 9, 4),
	}
	for in, want := range cases {
		got := d.Parse(in)
		require.True(t, got.OK, in)
		assert.True(t, want.Equal(got.Value), "%q -> %v", in, got.Value)
	}
}

func TestDates_Rejected(t *testing.T) {
	d := mustDates(t, nil)
	for _, in := range []string{
		"", "unknown", "Coming soon", "Mar 2021", "Q1 2021", "2021",
		"2021-13-01", "2021-02-30", "Feb 29, 2021", "31.02.2020", "32.01.2020",
		"To be announced", "Mar 4, 20211", "Sept 2021",
	} {
		got := d.Parse(in)
		assert.False(t, got.OK, in)
		assert.Equal(t, UnparseableDate, got.Reason, in)
	}
}

func TestDates_RoundTrip(t *testing.T) {
	d := mustDates(t, nil)
	start := date(1997, 1, 1)
	for i := 0; i < 365*30; i += 37 {
		day := start.AddDate(0, 0, i)
		for _, layout := range DefaultDateLayouts {
			s := day.Format(layout)
			got := d.Parse(s)
			require.True(t, got.OK, "%s (%s)", s, layout)
			assert.Equal(t, day.Format(layout), got.Value.Format(layout))
			assert.True(t, day.Equal(got.Value), "%s parsed as %v", s, got.Value)
		}
	}
}

func TestDates_PriorityOrder(t *testing.T) {
	// MM.DD listed ahead of DD.MM: the ambiguous string resolves to January.
	d := mustDates(t, []string{"01.02.2006", "02.01.2006"})
	got := d.Parse("01.02.2021")
	require.True(t, got.OK)
	assert.Equal(t, time.January, got.Value.Month())
	assert.Equal(t, 2, got.Value.Day())
	assert.Equal(t, []string{"01.02.2006", "02.01.2006"}, d.Names())
}

func TestDates_Date(t *testing.T) {
	d := mustDates(t, nil)

	assert.Equal(t, MissingReleaseDate, d.Date(nil, false).Reason)
	assert.Equal(t, MissingReleaseDate, d.Date("   ", true).Reason)
	assert.Equal(t, UnparseableDate, d.Date(2021, true).Reason)

	nested := map[string]any{"coming_soon": false, "date": "Mar 4, 2021"}
	got := d.Date(nested, true)
	require.True(t, got.OK)
	assert.Equal(t, "Mar 4, 2021", DateText(nested))
}

func TestNewDates_Errors(t *testing.T) {
	_, err := NewDates([]string{})
	assert.Error(t, err)
	_, err = NewDates([]string{"Jan 2, 2006", " "})
	assert.Error(t, err)
}

type fixedParser struct{}

func (fixedParser) Name() string { return "fixed" }
func (fixedParser) Parse(s string) (time.Time, bool) {
	if s == "launch day" {
		return date(2004, 11, 16), true
	}
	return time.Time{}, false
}

func TestDates_CustomStrategy(t *testing.T) {
	d := WithParsers(fixedParser{}, LayoutParser{Layout: "2006-01-02"})
	assert.True(t, d.Parse("launch day").OK)
	assert.True(t, d.Parse("2004-11-16").OK)
	assert.False(t, d.Parse("Nov 16, 2004").OK)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
