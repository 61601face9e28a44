package domain

import "time"

// MergeRecord is the audit entry of a completed merge. It is never updated.
type MergeRecord struct {
	ID                 string         `json:"id"`
	FromBookID         string         `json:"from_book_id"`
	ToBookID           string         `json:"to_book_id"`
	ActorID            string         `json:"actor_id"`
	Reason             string         `json:"reason,omitempty"`
	MetadataSynced     bool           `json:"metadata_synced"`
	SyncedFields       []string       `json:"synced_fields,omitempty"`
	MovedISBNs         []string       `json:"moved_isbns,omitempty"`
	DroppedISBNs       []string       `json:"dropped_isbns,omitempty"`
	PreferencesMoved   int            `json:"preferences_moved"`
	PreferencesCleared int            `json:"preferences_cleared"`
	Repointed          map[string]int `json:"repointed,omitempty"`
	RedirectsFlattened int            `json:"redirects_flattened"`
	GID                string         `json:"gid,omitempty"`
	DryRun             bool           `json:"dry_run,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// MergeRequest describes a merge of From into To.
type MergeRequest struct {
	FromBookID   string
	ToBookID     string
	SyncMetadata bool
	Reason       string
	ActorID      string
	// DryRun computes the merge plan and rolls it back.
	DryRun bool
	// ReportID is resolved in the same transaction when set.
	ReportID string
}
