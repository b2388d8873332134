// Package normalize turns raw warehouse strings into typed call values.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/models"
)

// NotAnswered is the warehouse sentinel for a missing dial-answered time.
const NotAnswered = "-"

// WIB is Western Indonesian Time, the zone the warehouse records local times in.
var WIB = time.FixedZone("WIB", 7*60*60)

// layouts carrying a numeric offset
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z0700",
}

// layouts ending in a zone name; only UTC is accepted
var namedZoneLayouts = []string{
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02T15:04:05.999999999 MST",
}

// zone-less layouts are interpreted in the Normalizer's location
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// PhoneNumber strips every non-digit from raw, leaving the canonical digit string.
func PhoneNumber(raw string) string {
	return phonenumbers.NormalizeDigitsOnly(strings.TrimSpace(raw))
}

// Memo passes the memo through unchanged.
func Memo(raw string) string {
	return raw
}

// Duration parses "H:MM:SS[.fff]", "MM:SS" or plain seconds ("90", "0.5").
func Duration(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, apperrors.MalformedDuration(raw, fmt.Errorf("empty"))
	}
	if strings.HasPrefix(s, "-") {
		return 0, apperrors.MalformedDuration(raw, fmt.Errorf("negative"))
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, apperrors.MalformedDuration(raw, fmt.Errorf("too many fields"))
	}

	seconds, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, apperrors.MalformedDuration(raw, err)
	}

	// minutes, then hours, walking leftwards
	unit := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, apperrors.MalformedDuration(raw, err)
		}
		seconds += float64(n) * unit
		unit *= 60
	}

	nanos := math.Round(seconds * float64(time.Second))
	if nanos >= float64(math.MaxInt64) {
		return 0, apperrors.MalformedDuration(raw, fmt.Errorf("out of range"))
	}
	return time.Duration(nanos), nil
}

// Normalizer parses timestamps and builds Calls from raw rows.
type Normalizer struct {
	// Location applies to timestamps that carry no zone.
	Location *time.Location
}

// New returns a Normalizer for loc, defaulting to WIB when loc is nil.
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = WIB
	}
	return &Normalizer{Location: loc}
}

// Timestamp parses an ISO-8601 timestamp into a zone-aware instant.
func (n *Normalizer) Timestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, apperrors.MalformedTimestamp(raw, fmt.Errorf("empty"))
	}

	var err error
	for i, layout := range zonedLayouts {
		zt, zerr := time.Parse(layout, s)
		if zerr == nil {
			return zt, nil
		}
		if i == 0 {
			err = zerr
		}
	}
	for _, layout := range namedZoneLayouts {
		// unknown abbreviations parse with a fabricated zero offset
		if zt, zerr := time.Parse(layout, s); zerr == nil {
			if name, offset := zt.Zone(); name == "UTC" && offset == 0 {
				return zt.UTC(), nil
			}
		}
	}
	for _, layout := range localLayouts {
		if lt, lerr := time.ParseInLocation(layout, s, n.Location); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, apperrors.MalformedTimestamp(raw, err)
}

// AnsweredTimestamp is Timestamp for the optional dial-answered field:
// the "-" sentinel and the empty string mean the call was not answered.
func (n *Normalizer) AnsweredTimestamp(raw string) (*time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == NotAnswered || s == "" {
		return nil, nil
	}
	t, err := n.Timestamp(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Call normalizes a raw row. Durations are taken as supplied, not derived
// from the timestamps.
func (n *Normalizer) Call(row models.CallRow) (*models.Call, error) {
	start, err := n.Timestamp(row.DialStartsAt)
	if err != nil {
		return nil, fmt.Errorf("dial start: %w", err)
	}
	answered, err := n.AnsweredTimestamp(row.DialAnsweredAt)
	if err != nil {
		return nil, fmt.Errorf("dial answered: %w", err)
	}
	end, err := n.Timestamp(row.DialEndsAt)
	if err != nil {
		return nil, fmt.Errorf("dial end: %w", err)
	}
	if end.Before(start) {
		return nil, apperrors.MalformedTimestamp(row.DialEndsAt, fmt.Errorf("dial end precedes dial start %s", start.Format(time.RFC3339)))
	}

	ringing, err := Duration(row.RingingTime)
	if err != nil {
		return nil, fmt.Errorf("ringing time: %w", err)
	}
	duration, err := Duration(row.CallDuration)
	if err != nil {
		return nil, fmt.Errorf("call duration: %w", err)
	}

	return &models.Call{
		Tenant:         strings.TrimSpace(row.Tenant),
		SequenceID:     row.SequenceID,
		UserName:       row.UserName,
		From:           PhoneNumber(row.CallFrom),
		To:             PhoneNumber(row.CallTo),
		CallType:       row.CallType,
		DialStartAt:    start,
		DialAnsweredAt: answered,
		DialEndAt:      end,
		RingingTime:    ringing,
		Duration:       duration,
		Memo:           Memo(row.CallMemo),
		Carrier:        row.Carrier,
	}, nil
}
