package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ApprovalStatus is the review state of a time entry.
type ApprovalStatus string

const (
	ApprovalStatusDraft            ApprovalStatus = "DRAFT"
	ApprovalStatusSubmitted        ApprovalStatus = "SUBMITTED"
	ApprovalStatusChangesRequested ApprovalStatus = "CHANGES_REQUESTED"
	ApprovalStatusApproved         ApprovalStatus = "APPROVED"
)

// UnapprovedStatuses are carried forward by rollover.
var UnapprovedStatuses = []ApprovalStatus{
	ApprovalStatusDraft,
	ApprovalStatusSubmitted,
	ApprovalStatusChangesRequested,
}

// WorkItemType names the table a time entry's work item lives in.
type WorkItemType string

const (
	WorkItemTypeTicket      WorkItemType = "ticket"
	WorkItemTypeProjectTask WorkItemType = "project_task"
)

type User struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Username  string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

type Ticket struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	CompanyID snowflake.ID `gorm:"not null;index"`
	Title     string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Ticket) TableName() string { return "tickets" }

type Project struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	CompanyID   snowflake.ID `gorm:"not null;index"`
	ProjectName string       `gorm:"type:text;not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Project) TableName() string { return "projects" }

type ProjectPhase struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	ProjectID snowflake.ID `gorm:"not null;index"`
	PhaseName string       `gorm:"type:text;not null"`
}

func (ProjectPhase) TableName() string { return "project_phases" }

type ProjectTask struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	PhaseID  snowflake.ID `gorm:"not null;index"`
	TaskName string       `gorm:"type:text;not null"`
}

func (ProjectTask) TableName() string { return "project_tasks" }

// TimeEntry is work logged by a user against a ticket or project task.
type TimeEntry struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	UserID         snowflake.ID   `gorm:"not null;index"`
	WorkItemID     snowflake.ID   `gorm:"not null;index"`
	WorkItemType   WorkItemType   `gorm:"type:text;not null"`
	ServiceID      snowflake.ID   `gorm:"not null;index"`
	StartTime      time.Time      `gorm:"not null"`
	EndTime        time.Time      `gorm:"not null"`
	Notes          *string        `gorm:"type:text"`
	ApprovalStatus ApprovalStatus `gorm:"type:text;not null;default:'DRAFT'"`
	Invoiced       bool           `gorm:"not null;default:false"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TimeEntry) TableName() string { return "time_entries" }

// Duration is the logged span.
func (e TimeEntry) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// BillableTimeEntry is an approved entry priced under a plan.
type BillableTimeEntry struct {
	ID           snowflake.ID
	UserID       snowflake.ID
	ServiceID    snowflake.ID
	ServiceName  string
	DefaultRate  float64
	CustomRate   *float64
	TaxRegion    *string
	StartTime    time.Time
	EndTime      time.Time
	WorkItemName *string
}

// Hours is the fractional number of hours between start and end.
func (e BillableTimeEntry) Hours() float64 {
	return e.EndTime.Sub(e.StartTime).Hours()
}
