package rulepack

import (
	"sort"

	"github.com/egraphlab/saturate/internal/rewrite"
)

// Categories names every built-in rule by the config key that toggles
// it, mirroring apoc/config.go's Categories map[string]bool UX for
// enabling/disabling entire procedure groups.
const (
	CategoryAddSubInverse = "add_sub_inverse"
	CategorySelfSubZero   = "self_sub_zero"
)

// Default returns every built-in rule, keyed by category name.
func Default() map[string]rewrite.Rule {
	return map[string]rewrite.Rule{
		CategoryAddSubInverse: AddSubInverse(),
		CategorySelfSubZero:   SelfSubIsZero(),
	}
}

// Enabled returns the built-in rules whose category is not explicitly
// set to false in enabledByCategory. An absent category defaults to
// enabled, matching apoc/config.go's "default: true" documented
// behavior for its own category toggles.
func Enabled(enabledByCategory map[string]bool) []rewrite.Rule {
	all := Default()
	categories := make([]string, 0, len(all))
	for category := range all {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	out := make([]rewrite.Rule, 0, len(all))
	for _, category := range categories {
		if enabled, explicit := enabledByCategory[category]; explicit && !enabled {
			continue
		}
		out = append(out, all[category])
	}
	return out
}
