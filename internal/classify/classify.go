// Package classify assigns a NumberType to a normalized call.
package classify

import (
	"regexp"
	"strings"
	"sync"

	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/rateconfig"
	"github.com/callcharge-production/internal/reference"
)

var (
	// extensionPattern matches PBX extensions: 4 to 6 digits, no trunk prefix.
	extensionPattern = regexp.MustCompile(`^[1-9][0-9]{3,5}$`)

	// hotlinePattern is the national 14xxx call-center range, which the
	// extension pattern would otherwise swallow.
	hotlinePattern = regexp.MustCompile(`^14[0-9]{3}$`)
)

// Classifier evaluates the classification steps in a fixed order; the first
// step that matches decides the NumberType.
type Classifier struct {
	tables *reference.Tables

	// tenant extension patterns by source; nil for ones that do not compile
	patterns sync.Map
}

func New(tables *reference.Tables) *Classifier {
	if tables == nil {
		tables = reference.Default()
	}
	return &Classifier{tables: tables}
}

// Classify returns the NumberType of call. cfg may be nil, in which case
// only the reference tables are consulted.
func (c *Classifier) Classify(call *models.Call, cfg *rateconfig.Configuration) models.NumberType {
	if cfg == nil {
		cfg = &rateconfig.Configuration{}
	}
	numbers := []string{call.To, call.From}

	internal := cfg.InternalNumberSet()
	isExtension := c.extensionMatcher(cfg)
	if anyNumber(numbers, func(n string) bool {
		return isExtension(n) || rateconfig.Contains(internal, n)
	}) {
		return models.NumberTypeInternal
	}

	for _, n := range numbers {
		if nt, ok := c.tables.Emergency(n); ok {
			return nt
		}
	}

	if anyNumber(numbers, c.tables.Premium) {
		return models.NumberTypePremium
	}
	if anyNumber(numbers, c.tables.TollFree) {
		return models.NumberTypeTollFree
	}

	split := cfg.SplitChargeNumberSet()
	if anyNumber(numbers, func(n string) bool {
		return c.tables.SplitCharge(n) || rateconfig.Contains(split, n)
	}) {
		return models.NumberTypeSplitCharge
	}

	for _, n := range numbers {
		if nt, ok := c.tables.International(n); ok {
			return nt
		}
	}

	targets := cfg.S2CTargets()
	if anyNumber(numbers, func(n string) bool { return rateconfig.Contains(targets, n) }) {
		return models.NumberTypeScanCall
	}

	return models.NumberTypeOrdinary
}

// extensionMatcher returns the tenant's extension pattern, or the built-in
// one when the tenant sets none or sets one that does not compile.
func (c *Classifier) extensionMatcher(cfg *rateconfig.Configuration) func(string) bool {
	if src := strings.TrimSpace(cfg.ExtensionPattern); src != "" {
		if re := c.compiled(src); re != nil {
			return re.MatchString
		}
	}
	return func(n string) bool {
		return extensionPattern.MatchString(n) && !hotlinePattern.MatchString(n)
	}
}

func (c *Classifier) compiled(src string) *regexp.Regexp {
	if v, ok := c.patterns.Load(src); ok {
		return v.(*regexp.Regexp)
	}
	re, err := regexp.Compile(src)
	if err != nil {
		re = nil
	}
	c.patterns.Store(src, re)
	return re
}

func anyNumber(numbers []string, match func(string) bool) bool {
	for _, n := range numbers {
		if n != "" && match(n) {
			return true
		}
	}
	return false
}
