// Package format turns rated calls into display records.
package format

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/normalize"
)

// TimeLayout is the layout of every display timestamp.
const TimeLayout = "2006-01-02 15:04:05 -0700"

// Record is the presentational form of a RatedCall.
type Record struct {
	SequenceID     string `json:"sequence_id"`
	UserName       string `json:"user_name"`
	CallFrom       string `json:"call_from"`
	CallTo         string `json:"call_to"`
	CallType       string `json:"call_type"`
	NumberType     string `json:"number_type"`
	DialStartsAt   string `json:"dial_starts_at"`
	DialAnsweredAt string `json:"dial_answered_at"`
	DialEndsAt     string `json:"dial_ends_at"`
	RingingTime    string `json:"ringing_time"`
	CallDuration   string `json:"call_duration"`
	CallMemo       string `json:"call_memo"`
	CallCharge     string `json:"call_charge"`
	Hash           string `json:"hash"`
}

// Format builds the display record of rated.
func Format(rated *models.RatedCall) Record {
	c := &rated.Call
	answered := normalize.NotAnswered
	if c.DialAnsweredAt != nil {
		answered = Timestamp(*c.DialAnsweredAt)
	}
	return Record{
		SequenceID:     c.SequenceID,
		UserName:       UserName(c.UserName),
		CallFrom:       c.From,
		CallTo:         c.To,
		CallType:       c.CallType,
		NumberType:     rated.NumberType.String(),
		DialStartsAt:   Timestamp(c.DialStartAt),
		DialAnsweredAt: answered,
		DialEndsAt:     Timestamp(c.DialEndAt),
		RingingTime:    Span(c.RingingTime),
		CallDuration:   Span(c.Duration),
		CallMemo:       c.Memo,
		CallCharge:     rated.Charge,
		Hash:           HashKey(c),
	}
}

// Timestamp renders t to whole seconds, keeping its offset.
func Timestamp(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseDisplayTime reads back a timestamp written by Timestamp.
func ParseDisplayTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperrors.MalformedTimestamp(s, err)
	}
	return t, nil
}

// Span renders d as H:MM:SS, truncated to whole seconds.
func Span(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// UserName trims, collapses inner whitespace and title-cases name.
func UserName(name string) string {
	// a Caser keeps state, so one is built per call
	return cases.Title(language.Und).String(strings.Join(strings.Fields(name), " "))
}

// HashKey is the deduplication key of a call: the hex SHA-256 of its
// origin, destination and dial start.
func HashKey(c *models.Call) string {
	sum := sha256.Sum256([]byte(c.From + "|" + c.To + "|" + c.DialStartAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])
}
