package metrics

import (
	"strings"

	"github.com/callcharge-production/internal/models"
)

// Family collapses a NumberType to a bounded label value: emergency and
// international categories lose their service or destination suffix.
func Family(nt models.NumberType) string {
	s := nt.String()
	switch {
	case strings.HasPrefix(s, models.EmergencyPrefix):
		return "emergency"
	case nt.IsInternational():
		return "international"
	case s == "":
		return "unknown"
	}
	return s
}
