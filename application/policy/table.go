package policy

import (
	"strings"

	"github.com/extgate-dev/extgate-sdk/domain/entities"
)

// loadPolicy normalizes a raw setting value into a policy table. Anything
// other than a non-empty string-keyed mapping is treated as "no policy"
// (nil), never as an error. A table of exactly {"*": true} collapses to nil
// as well: it is the canonical "allow everything" configuration and must
// short-circuit evaluation the same way an absent policy does.
func loadPolicy(raw any) *entities.PolicyTable {
	values, ok := raw.(map[string]any)
	if !ok || len(values) == 0 {
		return nil
	}

	table := make(entities.PolicyTable, len(values))
	for key, value := range values {
		table[strings.ToLower(key)] = entities.RuleFrom(value)
	}

	if len(table) == 1 {
		if rule, ok := table[entities.Wildcard]; ok && rule.IsWildcardAllow() {
			return nil
		}
	}

	return &table
}
