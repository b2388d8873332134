package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/models"
)

func TestPhoneNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"+62 21-5091-3400", "622150913400"},
		{"  (021) 555 0123 ", "0215550123"},
		{"1001", "1001"},
		{"", ""},
		{"anonymous", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneNumber(tt.raw))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"0:01:30", 90 * time.Second},
		{"01:00:00", time.Hour},
		{"2:05", 125 * time.Second},
		{"61", 61 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"0:00:00.25", 250 * time.Millisecond},
		{" 0 ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Duration(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "-1", "-0:00:05", "abc", "1:2:3:4", "1:xx:00", "NaN", "Inf", "99999999999", "2562048:00:00", "1e300"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Duration(raw)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedDuration))
		})
	}
}

func TestTimestamp(t *testing.T) {
	n := New(nil)

	got, err := n.Timestamp("2024-03-01T10:15:30+07:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 3, 15, 30, 0, time.UTC)))

	got, err = n.Timestamp("2024-03-01T03:15:30.123Z")
	require.NoError(t, err)
	assert.Equal(t, 123*time.Millisecond, time.Duration(got.Nanosecond()))

	// zone-less values are read in WIB
	got, err = n.Timestamp("2024-03-01 10:15:30")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 3, 1, 3, 15, 30, 0, time.UTC)))

	_, err = n.Timestamp("yesterday")
	assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedTimestamp))

	// a zone name other than UTC is not trusted
	_, err = n.Timestamp("2024-03-01 10:15:30 XYZ")
	assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedTimestamp))

	_, err = n.Timestamp("")
	assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedTimestamp))
}

func TestTimestampOffsetForms(t *testing.T) {
	n := New(time.UTC)
	want := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"2024-03-01 10:00:00+07:00",
		"2024-03-01 10:00:00.000+07:00",
		"2024-03-01T10:00:00+0700",
		"2024-03-01 10:00:00+0700",
		"2024-03-01 03:00:00 UTC",
		"2024-03-01T03:00:00 UTC",
		"2024-03-01 03:00:00Z",
	} {
		t.Run(raw, func(t *testing.T) {
			got, err := n.Timestamp(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestDurationLargestAccepted(t *testing.T) {
	d, err := Duration("2562047:00:00")
	require.NoError(t, err)
	assert.Equal(t, 2562047*time.Hour, d)
}

func TestAnsweredTimestamp(t *testing.T) {
	n := New(time.UTC)

	got, err := n.AnsweredTimestamp("-")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = n.AnsweredTimestamp("2024-03-01T10:15:30Z")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Hour())

	_, err = n.AnsweredTimestamp("10:15")
	assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedTimestamp))
}

func validRow() models.CallRow {
	return models.CallRow{
		Tenant:         " acme ",
		SequenceID:     "seq-1",
		UserName:       "budi santoso",
		CallFrom:       "+62 21 5550 0001",
		CallTo:         "0812-3456-7890",
		CallType:       "outbound call",
		DialStartsAt:   "2024-03-01T10:00:00+07:00",
		DialAnsweredAt: "-",
		DialEndsAt:     "2024-03-01T10:02:05+07:00",
		RingingTime:    "0:00:05",
		CallDuration:   "0:02:00",
		CallMemo:       "  follow up  ",
		Carrier:        "Atlasat",
	}
}

func TestCall(t *testing.T) {
	call, err := New(nil).Call(validRow())
	require.NoError(t, err)

	assert.Equal(t, "acme", call.Tenant)
	assert.Equal(t, "622155500001", call.From)
	assert.Equal(t, "081234567890", call.To)
	assert.False(t, call.Answered())
	assert.Equal(t, 5*time.Second, call.RingingTime)
	// supplied duration wins over end - start
	assert.Equal(t, 2*time.Minute, call.Duration)
	assert.Equal(t, "  follow up  ", call.Memo)
}

func TestCallRejectsEndBeforeStart(t *testing.T) {
	row := validRow()
	row.DialEndsAt = "2024-03-01T09:59:59+07:00"

	_, err := New(nil).Call(row)
	assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedTimestamp))
}

func TestCallPropagatesFieldErrors(t *testing.T) {
	row := validRow()
	row.CallDuration = "-3"
	_, err := New(nil).Call(row)
	assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedDuration))
	assert.Contains(t, err.Error(), "call duration")

	row = validRow()
	row.DialStartsAt = ""
	_, err = New(nil).Call(row)
	assert.True(t, apperrors.IsType(err, apperrors.TypeMalformedTimestamp))
}
