package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	cases := []struct {
		name     string
		raw      any
		present  bool
		wantRaw  *int64
		wantNorm string
		reason   Reason
	}{
		{name: "json number", raw: json.Number("699"), present: true, wantRaw: i64(699), wantNorm: "6.99"},
		{name: "digit string", raw: "1999", present: true, wantRaw: i64(1999), wantNorm: "19.99"},
		{name: "free", raw: json.Number("0"), present: true, wantRaw: i64(0), wantNorm: "0"},
		{name: "whole float", raw: 1000.0, present: true, wantRaw: i64(1000), wantNorm: "10"},
		{name: "negative kept raw", raw: json.Number("-5"), present: true, wantRaw: i64(-5), reason: InvalidPrice},
		{name: "out of range", raw: json.Number("100000001"), present: true, wantRaw: i64(100000001), reason: InvalidPrice},
		{name: "fractional", raw: json.Number("6.5"), present: true, reason: InvalidPrice},
		{name: "exponent", raw: json.Number("1e3"), present: true, reason: InvalidPrice},
		{name: "decimal text", raw: "699.0", present: true, reason: InvalidPrice},
		{name: "signed text", raw: "+699", present: true, wantRaw: i64(699), wantNorm: "6.99"},
		{name: "text", raw: "free", present: true, reason: InvalidPrice},
		{name: "bool", raw: true, present: true, reason: InvalidPrice},
		{name: "absent", present: false, reason: MissingPrice},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Price(c.raw, c.present, 0)
			assert.Equal(t, c.wantRaw, got.Raw)
			assert.Equal(t, c.reason, got.Normalized.Reason)
			if c.wantNorm == "" {
				assert.False(t, got.Normalized.OK)
				assert.Nil(t, got.Normalized.Ptr())
				return
			}
			require.True(t, got.Normalized.OK)
			assert.Equal(t, c.wantNorm, got.Normalized.Value.String())
		})
	}
}

func TestPrice_NormalizedIsRawOverHundred(t *testing.T) {
	for _, cents := range []int64{0, 1, 7, 99, 100, 101, 699, 1999, 5999, 123456, 99999999} {
		got := Price(cents, true, 0)
		require.True(t, got.Normalized.OK, "cents=%d", cents)
		require.NotNil(t, got.Raw)
		assert.Equal(t, cents, *got.Raw)

		back := got.Normalized.Value.Shift(2)
		assert.True(t, back.IsInteger())
		assert.Equal(t, cents, back.IntPart(), "cents=%d", cents)
	}
}

func TestPrice_CustomMax(t *testing.T) {
	got := Price(json.Number("5000"), true, 4999)
	assert.Equal(t, InvalidPrice, got.Normalized.Reason)
	assert.Equal(t, "5000", got.RawText)
}

func i64(v int64) *int64 { return &v }
