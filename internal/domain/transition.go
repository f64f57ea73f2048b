package domain

import "time"

// ApplyStatusTransition returns a copy of task with newStatus applied and the
// derived timestamps recomputed. Any requested transition is accepted; the
// rules only derive side effects:
//
//   - entering done with CompletedAt unset sets CompletedAt = now
//   - leaving done clears CompletedAt
//   - entering in-progress for the first time ever sets StartedAt = now;
//     StartedAt is never cleared by later transitions
//   - a no-op transition (newStatus == current status) changes nothing
//
// The function is pure apart from reading its arguments, so the same logic
// serves both caller-initiated status updates and the stale-task reaper.
func ApplyStatusTransition(task Task, newStatus TaskStatus, now time.Time) Task {
	if newStatus == task.Status {
		return task
	}

	prev := task.Status
	task.Status = newStatus

	if newStatus == StatusDone && task.CompletedAt == nil {
		completed := now
		task.CompletedAt = &completed
	}
	if prev == StatusDone && newStatus != StatusDone {
		task.CompletedAt = nil
	}
	if newStatus == StatusInProgress && task.StartedAt == nil {
		started := now
		task.StartedAt = &started
	}

	task.UpdatedAt = now
	return task
}
