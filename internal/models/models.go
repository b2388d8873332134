package models

import (
	"strings"
	"time"
)

// CallRow is one raw CDR row as delivered by the warehouse.
type CallRow struct {
	Tenant         string `json:"tenant_name" db:"tenant_name"`
	SequenceID     string `json:"sequence_id" db:"sequence_id"`
	UserName       string `json:"user_name" db:"user_name"`
	CallFrom       string `json:"call_from" db:"call_from"`
	CallTo         string `json:"call_to" db:"call_to"`
	CallType       string `json:"call_type" db:"call_type"`
	DialStartsAt   string `json:"dial_starts_at" db:"dial_starts_at"`
	DialAnsweredAt string `json:"dial_answered_at" db:"dial_answered_at"`
	DialEndsAt     string `json:"dial_ends_at" db:"dial_ends_at"`
	RingingTime    string `json:"ringing_time" db:"ringing_time"`
	CallDuration   string `json:"call_duration" db:"call_duration"`
	CallMemo       string `json:"call_memo" db:"call_memo"`
	Carrier        string `json:"carrier" db:"carrier"`
}

// Call is a normalized CDR. It is never modified after construction.
type Call struct {
	Tenant         string        `json:"tenant"`
	SequenceID     string        `json:"sequence_id"`
	UserName       string        `json:"user_name"`
	From           string        `json:"from"`
	To             string        `json:"to"`
	CallType       string        `json:"call_type"`
	DialStartAt    time.Time     `json:"dial_start_at"`
	DialAnsweredAt *time.Time    `json:"dial_answered_at,omitempty"`
	DialEndAt      time.Time     `json:"dial_end_at"`
	RingingTime    time.Duration `json:"ringing_time"`
	Duration       time.Duration `json:"duration"`
	Memo           string        `json:"memo"`
	Carrier        string        `json:"carrier"`
}

// Answered reports whether the call was picked up.
func (c *Call) Answered() bool {
	return c.DialAnsweredAt != nil
}

// NumberType is the semantic classification of a call.
type NumberType string

const (
	NumberTypeInternal    NumberType = "internal"
	NumberTypePremium     NumberType = "premium"
	NumberTypeTollFree    NumberType = "toll-free"
	NumberTypeSplitCharge NumberType = "split-charge"
	NumberTypeScanCall    NumberType = "scancall"
	NumberTypeOrdinary    NumberType = "ordinary"
)

const (
	// EmergencyPrefix starts every emergency category label.
	EmergencyPrefix = "emergency-"

	// InternationalPrefix starts every international category label.
	InternationalPrefix = "international-"
)

// EmergencyType returns the label for an emergency service category.
func EmergencyType(service string) NumberType {
	return NumberType(EmergencyPrefix + service)
}

// InternationalType returns the label for an international destination.
func InternationalType(key string) NumberType {
	return NumberType(InternationalPrefix + key)
}

// IsInternational reports whether t labels an international destination.
func (t NumberType) IsInternational() bool {
	return strings.HasPrefix(string(t), InternationalPrefix)
}

func (t NumberType) String() string {
	return string(t)
}

// RatedCall is a Call together with its classification and charge.
type RatedCall struct {
	Call       Call       `json:"call"`
	NumberType NumberType `json:"number_type"`
	Charge     string     `json:"charge"`
	Rule       string     `json:"rule"`
}
