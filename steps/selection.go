package steps

import "strings"

// AllKeyword selects every registered step.
const AllKeyword = "all"

// Selection is the validated, de-duplicated, ordered list of step IDs for one run.
type Selection struct {
	IDs []string
	// Defaulted is true when no tokens were supplied and every step was selected.
	Defaulted bool
	// All is true when the all keyword appeared in the input.
	All bool
}

// Len reports the number of selected steps.
func (s Selection) Len() int {
	return len(s.IDs)
}

// Select turns raw tokens into a Selection. Every token must be a registered
// step ID or the all keyword; the first unknown token aborts the selection.
// Repeated names keep their first position. The all keyword, wherever it
// appears, selects the full registry order.
func Select(reg *Registry, tokens []string) (Selection, error) {
	if len(tokens) == 0 {
		return Selection{IDs: reg.Names(), Defaulted: true, All: true}, nil
	}

	seen := make(map[string]struct{}, len(tokens))
	ids := make([]string, 0, len(tokens))
	all := false
	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		if token == AllKeyword {
			all = true
			continue
		}
		if _, ok := reg.Lookup(token); !ok {
			return Selection{}, UnknownStepError{Token: raw, Known: reg.Names()}
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		ids = append(ids, token)
	}

	if all {
		return Selection{IDs: reg.Names(), All: true}, nil
	}
	return Selection{IDs: ids}, nil
}

// RequiresPrivilege reports whether any selected step is privileged.
func (s Selection) RequiresPrivilege(reg *Registry) bool {
	for _, id := range s.IDs {
		if step, ok := reg.Lookup(id); ok && step.Metadata().Privileged {
			return true
		}
	}
	return false
}
