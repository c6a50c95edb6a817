// Package evidence normalizes raw extracted-document fields into the
// canonical evidence bag attached to one email.
package evidence

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

var (
	accountNumberPattern = regexp.MustCompile(`(?:ACC|BUS-ACC)-\d{4}-\d{4}`)
	amountPattern        = regexp.MustCompile(`\$[\d,]+\.?\d*`)
	datePattern          = regexp.MustCompile(
		`(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}` +
			`|\d{1,2}/\d{1,2}/\d{4}` +
			`|\d{4}-\d{2}-\d{2}`)
	// Names never span lines, so only horizontal whitespace joins the words
	namePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,2}\b`)
)

// Normalizer builds evidence bags from raw documents. It is a pure
// transformation and never fails: empty or malformed input yields empty
// collections. The name exclusion set suppresses known false-positive phrases
// (field-label artifacts) and is injected as configuration.
type Normalizer struct {
	logger     *zap.Logger
	exclusions map[string]struct{}
}

// NewNormalizer creates a normalizer with the given name exclusion set
func NewNormalizer(logger *zap.Logger, nameExclusions []string) *Normalizer {
	exclusions := make(map[string]struct{}, len(nameExclusions))
	for _, phrase := range nameExclusions {
		phrase = strings.TrimSpace(phrase)
		if phrase != "" {
			exclusions[phrase] = struct{}{}
		}
	}
	return &Normalizer{
		logger:     logger,
		exclusions: exclusions,
	}
}

// Normalize merges the documents extracted for one email into a single
// deduplicated evidence bag. No documents yields an empty bag, never nil.
func (n *Normalizer) Normalize(emailID string, docs []*core.RawDocument) *core.EvidenceBag {
	bag := core.NewEvidenceBag(emailID)

	seenAccounts := map[string]struct{}{}
	seenAmounts := map[float64]struct{}{}
	seenDates := map[string]struct{}{}
	seenNames := map[string]struct{}{}

	for _, doc := range docs {
		if doc == nil {
			continue
		}

		for _, acc := range append(accountNumberPattern.FindAllString(doc.Text, -1), doc.AccountNumbers...) {
			acc = strings.TrimSpace(acc)
			if acc == "" {
				continue
			}
			if _, ok := seenAccounts[acc]; !ok {
				seenAccounts[acc] = struct{}{}
				bag.AccountNumbers = append(bag.AccountNumbers, acc)
			}
		}

		for _, token := range append(amountPattern.FindAllString(doc.Text, -1), doc.Amounts...) {
			amount, ok := ParseAmount(token)
			if !ok {
				// Unparseable tokens are excluded outright. Zero is a valid
				// amount and must not stand in for "unparseable".
				continue
			}
			if _, dup := seenAmounts[amount]; !dup {
				seenAmounts[amount] = struct{}{}
				bag.Amounts = append(bag.Amounts, amount)
			}
		}

		for _, date := range append(datePattern.FindAllString(doc.Text, -1), doc.Dates...) {
			date = strings.TrimSpace(date)
			if date == "" {
				continue
			}
			if _, ok := seenDates[date]; !ok {
				seenDates[date] = struct{}{}
				bag.Dates = append(bag.Dates, date)
			}
		}

		for _, name := range append(namePattern.FindAllString(doc.Text, -1), doc.Names...) {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, excluded := n.exclusions[name]; excluded {
				continue
			}
			if _, ok := seenNames[name]; !ok {
				seenNames[name] = struct{}{}
				bag.Names = append(bag.Names, name)
			}
		}
	}

	n.logger.Debug("Evidence normalized",
		zap.String("email_id", emailID),
		zap.Int("accounts", len(bag.AccountNumbers)),
		zap.Int("amounts", len(bag.Amounts)),
		zap.Int("dates", len(bag.Dates)),
		zap.Int("names", len(bag.Names)))

	return bag
}

// ParseAmount parses a currency token like "$1,234.56" into its numeric
// value. The second return value is false when the token is not a number.
func ParseAmount(token string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(token), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
