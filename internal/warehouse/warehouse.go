// Package warehouse reads raw call detail rows from MySQL.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/callcharge-production/internal/database"
	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/models"
)

// DateLayout is the layout of the inclusive start and end dates of a fetch.
const DateLayout = "2006-01-02"

// Source fetches call_details rows.
type Source struct {
	db *database.DB
}

func NewSource(db *database.DB) *Source {
	return &Source{db: db}
}

// TenantExists reports whether the warehouse holds any call for tenant.
func (s *Source) TenantExists(ctx context.Context, tenant string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
        SELECT 1 FROM call_details WHERE tenant_name = ? LIMIT 1
    `, tenant).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up tenant %s: %w", tenant, err)
	}
	return true, nil
}

// Fetch returns the tenant's calls dialled between start and end, both
// dates inclusive, ordered by dial start then sequence id. Timestamps are
// stored as text beginning with the date, so the date part is compared as
// a string.
func (s *Source) Fetch(ctx context.Context, tenant string, start, end time.Time) ([]models.CallRow, error) {
	if end.Before(start) {
		return nil, apperrors.Input("end date precedes start date")
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT tenant_name, sequence_id, COALESCE(user_name, ''), COALESCE(call_from, ''),
               COALESCE(call_to, ''), COALESCE(call_type, ''), dial_starts_at,
               COALESCE(dial_answered_at, '-'), dial_ends_at, COALESCE(ringing_time, ''),
               COALESCE(call_duration, ''), COALESCE(call_memo, ''), COALESCE(carrier, '')
        FROM call_details
        WHERE tenant_name = ? AND LEFT(dial_starts_at, 10) BETWEEN ? AND ?
        ORDER BY dial_starts_at, sequence_id
    `, tenant, start.Format(DateLayout), end.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calls for %s: %w", tenant, err)
	}
	defer rows.Close()

	var out []models.CallRow
	for rows.Next() {
		var r models.CallRow
		if err := rows.Scan(
			&r.Tenant, &r.SequenceID, &r.UserName, &r.CallFrom,
			&r.CallTo, &r.CallType, &r.DialStartsAt,
			&r.DialAnsweredAt, &r.DialEndsAt, &r.RingingTime,
			&r.CallDuration, &r.CallMemo, &r.Carrier,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch calls for %s: %w", tenant, err)
	}
	return out, nil
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.Input(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s))
	}
	return t, nil
}
