package store

import "expensetracker/internal/models"

// ThemeApplier returns a listener that calls apply with the profile theme
// every time it changes.
func ThemeApplier(apply func(theme models.Theme)) Listener {
	return func(prev, next State) {
		if prev.Profile.Theme != next.Profile.Theme {
			apply(next.Profile.Theme)
		}
	}
}
