package classifier

import (
	"strings"

	"github.com/tbourn/go-support-agent/internal/domain"
)

const (
	prefixClassification = "Classification:"
	prefixSummary        = "Summary:"
	prefixResponse       = "Response:"
)

// Parse extracts the three labelled fields from a model reply. Labels must
// start a line; values are trimmed; a later line with the same label wins;
// lines without a known label are ignored. Missing fields default to
// "General Inquiry", "" and "".
func Parse(text string) Result {
	res := Result{Classification: domain.DefaultClassification}
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		switch {
		case strings.HasPrefix(line, prefixClassification):
			res.Classification = strings.TrimSpace(strings.TrimPrefix(line, prefixClassification))
		case strings.HasPrefix(line, prefixSummary):
			res.Summary = strings.TrimSpace(strings.TrimPrefix(line, prefixSummary))
		case strings.HasPrefix(line, prefixResponse):
			res.Response = strings.TrimSpace(strings.TrimPrefix(line, prefixResponse))
		}
	}
	return res
}
