// Package events carries report lifecycle events to in-process subscribers.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	ReportGenerated EventType = "REPORT_GENERATED"
	ReportDelivered EventType = "REPORT_DELIVERED"
	JobStarted      EventType = "JOB_STARTED"
	JobCompleted    EventType = "JOB_COMPLETED"
	JobFailed       EventType = "JOB_FAILED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	EventType() EventType
}

// Event is one published occurrence
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// ReportGeneratedData summarizes a freshly generated report
type ReportGeneratedData struct {
	TotalDays    int      `json:"total_days"`
	RecentDays   int      `json:"recent_days"`
	BaselineDays int      `json:"baseline_days"`
	Insufficient bool     `json:"insufficient"`
	Notable      []string `json:"notable,omitempty"`
}

func (d *ReportGeneratedData) EventType() EventType {
	return ReportGenerated
}

// ReportDeliveredData records where a report went
type ReportDeliveredData struct {
	Transports []string `json:"transports"`
	Error      string   `json:"error,omitempty"`
}

func (d *ReportDeliveredData) EventType() EventType {
	return ReportDelivered
}

// JobStatusData contains data for job lifecycle events
type JobStatusData struct {
	JobType  string  `json:"job_type"`
	Status   string  `json:"status"` // "started", "completed", "failed"
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds
}

// EventType returns the event type matching Status
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
