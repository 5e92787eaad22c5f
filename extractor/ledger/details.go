package ledger

import (
	"github.com/aqlanhadi/statex/extractor/common"
)

// ExtractAccountDetails applies the built-in field patterns to text.
func ExtractAccountDetails(text string) common.AccountDetails {
	return defaultPatterns.AccountDetails(text)
}

// AccountDetails runs every field pattern once over the whole text and keeps
// the trimmed first match. Fields without a match are left out.
func (p Patterns) AccountDetails(text string) common.AccountDetails {
	details := common.AccountDetails{}

	for key, re := range p.Fields {
		if match := re.FindStringSubmatch(text); match != nil {
			details[key] = common.Trim(match[1])
		}
	}

	return details
}
