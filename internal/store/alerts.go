package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/notify"
	"expensetracker/internal/report"
)

const (
	msgBudgetWarning  = "You have used 80% of your monthly budget!"
	msgBudgetExceeded = "You have exceeded your monthly budget!"
)

// AlertPolicy decides when a budget alert repeats.
type AlertPolicy string

const (
	// AlertOnEdge alerts only when the level changes into warning or exceeded.
	AlertOnEdge AlertPolicy = "edge"
	// AlertOnEveryChange alerts on every expense change while at a level.
	AlertOnEveryChange AlertPolicy = "every"
)

// ParseAlertPolicy parses a policy name; empty selects AlertOnEdge.
func ParseAlertPolicy(s string) (AlertPolicy, error) {
	switch AlertPolicy(s) {
	case "", AlertOnEdge:
		return AlertOnEdge, nil
	case AlertOnEveryChange:
		return AlertOnEveryChange, nil
	}
	return "", fmt.Errorf("unknown budget alert policy %q", s)
}

// AlertWatcher compares this month's spending against the budget whenever the
// expense list changes and notifies when the budget is nearly or fully used.
type AlertWatcher struct {
	notifier notify.Notifier
	policy   AlertPolicy
	now      func() time.Time

	mu    sync.Mutex
	level report.Level
}

// NewAlertWatcher creates a watcher. Attach it with Store.Subscribe(w.Observe).
func NewAlertWatcher(notifier notify.Notifier, policy AlertPolicy, now func() time.Time) *AlertWatcher {
	if now == nil {
		now = time.Now
	}
	return &AlertWatcher{notifier: notifier, policy: policy, now: now, level: report.LevelNone}
}

// Observe is a store Listener.
func (w *AlertWatcher) Observe(prev, next State) {
	if sameExpenses(prev.Expenses, next.Expenses) {
		return
	}

	now := w.now()
	level := report.BudgetLevel(next.TotalExpenses(now), next.Profile.Budget)

	w.mu.Lock()
	previous := w.level
	w.level = level
	w.mu.Unlock()

	if level == report.LevelNone {
		return
	}
	if w.policy != AlertOnEveryChange && level == previous {
		return
	}

	owner := ""
	if next.Identity != nil {
		owner = next.Identity.ID
	}
	payload := map[string]any{
		"budget":  next.Profile.Budget.String(),
		"spent":   next.TotalExpenses(now).String(),
		"percent": next.PercentSpent(now),
	}

	var n notify.Notification
	if level == report.LevelExceeded {
		n = notify.Error(msgBudgetExceeded).WithEvent(notify.TopicBudgetExceeded, owner, payload)
	} else {
		n = notify.Warning(msgBudgetWarning).WithEvent(notify.TopicBudgetWarning, owner, payload)
	}
	w.notifier.Notify(context.Background(), n)
}

// Level returns the level seen on the last expense change.
func (w *AlertWatcher) Level() report.Level {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.level
}
