package domain

import "time"

// ReportStatus is the moderation state of a duplicate report.
type ReportStatus string

// Report statuses.
const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
	ReportRejected ReportStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportPending, ReportResolved, ReportRejected:
		return true
	default:
		return false
	}
}

// ReportAction is a moderator decision on a pending report.
type ReportAction string

// Report actions.
const (
	ActionReject  ReportAction = "reject"
	ActionResolve ReportAction = "resolve"
	ActionMerge   ReportAction = "merge"
)

// DuplicateReport is a user-submitted suspicion that a book duplicates another.
type DuplicateReport struct {
	ID         string       `json:"id"`
	ReporterID string       `json:"reporter_id"`
	BookID     string       `json:"book_id"`
	Reason     string       `json:"reason,omitempty"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy string       `json:"resolved_by,omitempty"`
	Resolution string       `json:"resolution,omitempty"`
	MergeID    string       `json:"merge_id,omitempty"`
}

// IsOpen reports whether the report still awaits moderation.
func (r *DuplicateReport) IsOpen() bool {
	return r.Status == ReportPending
}
