package store

import (
	"time"

	"dealership/internal/models"
)

// ActionLog is the LIFO history of admin mutations. Popping an entry never
// reverses the mutation it describes.
type ActionLog struct {
	entries []models.AdminAction
	nextID  int64
}

func NewActionLog() *ActionLog {
	return &ActionLog{nextID: 1}
}

// newActionLogFrom restores a persisted log. actions must be bottom first.
func newActionLogFrom(actions []models.AdminAction) *ActionLog {
	l := NewActionLog()
	l.entries = append(l.entries, actions...)
	for _, a := range actions {
		if a.ActionID >= l.nextID {
			l.nextID = a.ActionID + 1
		}
	}
	return l
}

func (l *ActionLog) Push(adminID int64, actionType, entityType string, entityID int64, details string, at time.Time) models.AdminAction {
	action := models.AdminAction{
		ActionID:   l.nextID,
		AdminID:    adminID,
		ActionType: actionType,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  at.Truncate(time.Second),
		Details:    details,
	}
	l.nextID++
	l.entries = append(l.entries, action)
	return action
}

// Pop removes the most recent entry. ok is false when the log is empty.
func (l *ActionLog) Pop() (action models.AdminAction, ok bool) {
	n := len(l.entries)
	if n == 0 {
		return models.AdminAction{}, false
	}
	action = l.entries[n-1]
	l.entries = l.entries[:n-1]
	return action, true
}

func (l *ActionLog) Peek() (models.AdminAction, bool) {
	n := len(l.entries)
	if n == 0 {
		return models.AdminAction{}, false
	}
	return l.entries[n-1], true
}

func (l *ActionLog) Len() int {
	return len(l.entries)
}

// Items returns the entries bottom first.
func (l *ActionLog) Items() []models.AdminAction {
	return append([]models.AdminAction(nil), l.entries...)
}

// Clear drops every entry. Ids keep counting from where they were.
func (l *ActionLog) Clear() {
	l.entries = nil
}

func (l *ActionLog) clone() *ActionLog {
	return &ActionLog{entries: l.Items(), nextID: l.nextID}
}
