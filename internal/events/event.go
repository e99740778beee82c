// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"crm_pipeline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the pipeline.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID  `json:"leadId"`
	Title    string     `json:"title"`
	OwnerID  uuid.UUID  `json:"ownerId"`
	ClientID *uuid.UUID `json:"clientId,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadStatusChanged is published after a lifecycle transition has committed.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// GeneratedTask describes one follow-up task produced by the task generator.
type GeneratedTask struct {
	TaskID uuid.UUID `json:"taskId"`
	Title  string    `json:"title"`
	DueAt  time.Time `json:"dueAt"`
}

// FollowupTasksGenerated is published after follow-up tasks for a lead have
// been written. Failed carries the titles of tasks that could not be created;
// per policy these are reported out-of-band and never escalate to the caller.
type FollowupTasksGenerated struct {
	BaseEvent
	LeadID        uuid.UUID       `json:"leadId"`
	OwnerID       uuid.UUID       `json:"ownerId"`
	TriggerStatus string          `json:"triggerStatus"`
	Tasks         []GeneratedTask `json:"tasks"`
	Failed        []string        `json:"failed,omitempty"`
}

func (e FollowupTasksGenerated) EventName() string { return "leads.followups.generated" }

// =============================================================================
// Tasks Domain Events
// =============================================================================

// TaskCompleted is published when a task reaches done status.
type TaskCompleted struct {
	BaseEvent
	TaskID  uuid.UUID  `json:"taskId"`
	LeadID  *uuid.UUID `json:"leadId,omitempty"`
	OwnerID uuid.UUID  `json:"ownerId"`
}

func (e TaskCompleted) EventName() string { return "tasks.completed" }
