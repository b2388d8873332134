package format

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/normalize"
)

func sampleCall(t *testing.T) *models.RatedCall {
	t.Helper()
	n := normalize.New(nil)
	call, err := n.Call(models.CallRow{
		Tenant:         "acme",
		SequenceID:     "seq-1",
		UserName:       "  jane   DOE ",
		CallFrom:       "+62 21 555 0100",
		CallTo:         "0812-3456-7890",
		CallType:       "Outbound Call",
		DialStartsAt:   "2024-03-01T10:00:00.750+07:00",
		DialAnsweredAt: "2024-03-01T10:00:05+07:00",
		DialEndsAt:     "2024-03-01 10:02:10",
		RingingTime:    "0:00:05",
		CallDuration:   "125",
		CallMemo:       "follow up",
	})
	require.NoError(t, err)
	return &models.RatedCall{Call: *call, NumberType: models.NumberTypeOrdinary, Charge: "1500"}
}

func TestFormat(t *testing.T) {
	rec := Format(sampleCall(t))

	assert.Equal(t, "seq-1", rec.SequenceID)
	assert.Equal(t, "Jane Doe", rec.UserName)
	assert.Equal(t, "62215550100", rec.CallFrom)
	assert.Equal(t, "081234567890", rec.CallTo)
	assert.Equal(t, "Outbound Call", rec.CallType)
	assert.Equal(t, "ordinary", rec.NumberType)
	assert.Equal(t, "2024-03-01 10:00:00 +0700", rec.DialStartsAt)
	assert.Equal(t, "2024-03-01 10:00:05 +0700", rec.DialAnsweredAt)
	assert.Equal(t, "2024-03-01 10:02:10 +0700", rec.DialEndsAt)
	assert.Equal(t, "0:00:05", rec.RingingTime)
	assert.Equal(t, "0:02:05", rec.CallDuration)
	assert.Equal(t, "follow up", rec.CallMemo)
	assert.Equal(t, "1500", rec.CallCharge)
	assert.Len(t, rec.Hash, 64)
}

func TestFormatUnanswered(t *testing.T) {
	rated := sampleCall(t)
	rated.Call.DialAnsweredAt = nil

	assert.Equal(t, "-", Format(rated).DialAnsweredAt)
}

func TestDisplayTimeRoundTrip(t *testing.T) {
	rated := sampleCall(t)
	rec := Format(rated)

	for _, tc := range []struct {
		display string
		want    time.Time
	}{
		{rec.DialStartsAt, rated.Call.DialStartAt},
		{rec.DialAnsweredAt, *rated.Call.DialAnsweredAt},
		{rec.DialEndsAt, rated.Call.DialEndAt},
	} {
		got, err := ParseDisplayTime(tc.display)
		require.NoError(t, err)
		assert.True(t, tc.want.Truncate(time.Second).Equal(got), "%s: want %s, got %s", tc.display, tc.want, got)
	}

	_, err := ParseDisplayTime("-")
	assert.Error(t, err)
}

func TestSpan(t *testing.T) {
	assert.Equal(t, "0:00:00", Span(0))
	assert.Equal(t, "0:00:59", Span(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "1:01:01", Span(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "27:00:00", Span(27*time.Hour))
}

func TestHashKey(t *testing.T) {
	a := sampleCall(t).Call
	b := a
	b.Memo = "different memo"
	b.Duration = time.Hour

	assert.Equal(t, HashKey(&a), HashKey(&b))

	// the same instant in another zone hashes the same
	c := a
	c.DialStartAt = a.DialStartAt.UTC()
	assert.Equal(t, HashKey(&a), HashKey(&c))

	d := a
	d.To = "081234567891"
	assert.NotEqual(t, HashKey(&a), HashKey(&d))
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.Write(Format(sampleCall(t))))
	require.NoError(t, w.Flush())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "seq-1", rows[1][0])
	assert.Equal(t, "1500", rows[1][12])
}

func TestCSVWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(&buf).Flush())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{Headers}, rows)
}
