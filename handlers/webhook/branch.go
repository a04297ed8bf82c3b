package webhook

import (
	"regexp"
	"strings"

	"github.com/abelzimusi/order-verification-app/models"
)

// matchBranch resolves which registered branch an order message refers to.
// The body is flattened to one line and each branch name is tested as a
// whole word, case-insensitively, so "TnP" does not fire inside "TnPetrol".
// When several names match, the longest wins: a message naming
// "TnP And Muntee Investments" must not resolve to the shorter "TnP".
func matchBranch(body string, branches []models.Branch) *models.Branch {
	flat := strings.NewReplacer("\r", " ", "\n", " ").Replace(body)

	var best *models.Branch
	for i := range branches {
		b := &branches[i]
		if b.Name == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(b.Name) + `\b`)
		if err != nil {
			continue
		}
		if !pattern.MatchString(flat) {
			continue
		}
		if best == nil || len(b.Name) > len(best.Name) {
			best = b
		}
	}
	return best
}
