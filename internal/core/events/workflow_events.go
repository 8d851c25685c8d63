package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeStatusChanged   = "workflow.status_changed"
	EventTypeShiftOpened     = "attendance.clocked_in"
	EventTypeShiftClosed     = "attendance.clocked_out"
	EventTypeMaterialBatch   = "material.batch_submitted"
	EventTypeReportSubmitted = "workreport.submitted"
)

// StatusChangedEvent is emitted after an approve or reject has been committed.
type StatusChangedEvent struct {
	BaseEvent
	Ledger   string `json:"ledger"`
	RecordID int64  `json:"record_id"`
	OwnerID  int64  `json:"owner_id"`
	ActorID  int64  `json:"actor_id"`
	Action   string `json:"action"`
	From     string `json:"from"`
	To       string `json:"to"`
}

func NewStatusChangedEvent(ledger string, recordID, ownerID, actorID int64, action, from, to string) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"ledger":    ledger,
				"record_id": recordID,
				"owner_id":  ownerID,
				"actor_id":  actorID,
				"action":    action,
				"from":      from,
				"to":        to,
			},
		},
		Ledger:   ledger,
		RecordID: recordID,
		OwnerID:  ownerID,
		ActorID:  actorID,
		Action:   action,
		From:     from,
		To:       to,
	}
}

// ShiftEvent covers both ends of an attendance shift.
type ShiftEvent struct {
	BaseEvent
	RecordID   int64    `json:"record_id"`
	UserID     int64    `json:"user_id"`
	TotalHours *float64 `json:"total_hours,omitempty"`
}

func NewShiftOpenedEvent(recordID, userID int64) *ShiftEvent {
	return newShiftEvent(EventTypeShiftOpened, recordID, userID, nil)
}

func NewShiftClosedEvent(recordID, userID int64, totalHours *float64) *ShiftEvent {
	return newShiftEvent(EventTypeShiftClosed, recordID, userID, totalHours)
}

func newShiftEvent(eventType string, recordID, userID int64, totalHours *float64) *ShiftEvent {
	data := map[string]interface{}{
		"record_id": recordID,
		"user_id":   userID,
	}
	if totalHours != nil {
		data["total_hours"] = *totalHours
	}
	return &ShiftEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		RecordID:   recordID,
		UserID:     userID,
		TotalHours: totalHours,
	}
}

// SubmissionEvent is emitted when a work report or a material batch is stored.
type SubmissionEvent struct {
	BaseEvent
	UserID int64 `json:"user_id"`
	Count  int   `json:"count"`
}

func NewSubmissionEvent(eventType string, userID int64, count int) *SubmissionEvent {
	return &SubmissionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"count":   count,
			},
		},
		UserID: userID,
		Count:  count,
	}
}
