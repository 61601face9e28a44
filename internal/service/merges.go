package service

import (
	"context"
	"strings"

	"github.com/listenupapp/bookid-server/internal/domain"
	"github.com/listenupapp/bookid-server/internal/sse"
	"github.com/listenupapp/bookid-server/internal/validation"
)

// MergeRequest is the input of Merge.
type MergeRequest struct {
	FromBookID   string `json:"from_book_id" validate:"required"`
	ToBookID     string `json:"to_book_id" validate:"required"`
	SyncMetadata bool   `json:"sync_metadata,omitempty"`
	Reason       string `json:"reason,omitempty" validate:"max=1000"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

// MergeService consolidates two book identities into one.
type MergeService struct {
	Deps
	validator *validation.Validator
}

// NewMergeService creates a new merge service.
func NewMergeService(deps Deps, validator *validation.Validator) *MergeService {
	return &MergeService{Deps: deps.withDefaults(), validator: validator}
}

// Merge retires req.FromBookID into req.ToBookID. The store applies every
// step in one transaction; after commit the search index is updated and a
// book.merged event is emitted. A dry run reports the plan without changes.
func (s *MergeService) Merge(ctx context.Context, actorID string, req MergeRequest) (*domain.MergeRecord, error) {
	req.FromBookID = strings.TrimSpace(req.FromBookID)
	req.ToBookID = strings.TrimSpace(req.ToBookID)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	return s.merge(ctx, domain.MergeRequest{
		FromBookID:   req.FromBookID,
		ToBookID:     req.ToBookID,
		SyncMetadata: req.SyncMetadata,
		Reason:       strings.TrimSpace(req.Reason),
		ActorID:      actorID,
		DryRun:       req.DryRun,
	})
}

func (s *MergeService) merge(ctx context.Context, req domain.MergeRequest) (*domain.MergeRecord, error) {
	rec, err := s.Store.Merge(ctx, req)
	if err != nil {
		s.Logger.Debug("merge rejected",
			"from_book_id", req.FromBookID,
			"to_book_id", req.ToBookID,
			"error", err)
		return nil, storageErr(err, "merge books")
	}

	if rec.DryRun {
		return rec, nil
	}

	s.unindex(ctx, rec.FromBookID)
	s.reindex(ctx, rec.ToBookID)
	s.Events.Emit(sse.NewBookMergedEvent(rec))

	s.Logger.Info("books merged",
		"merge_id", rec.ID,
		"from_book_id", rec.FromBookID,
		"to_book_id", rec.ToBookID,
		"actor_id", rec.ActorID,
		"moved_isbns", rec.MovedISBNs,
		"dropped_isbns", rec.DroppedISBNs,
		"preferences_cleared", rec.PreferencesCleared,
		"repointed", rec.Repointed,
		"gid", rec.GID)
	if len(rec.DroppedISBNs) > 0 {
		s.Logger.Warn("merge dropped colliding editions",
			"merge_id", rec.ID,
			"dropped_isbns", rec.DroppedISBNs)
	}

	return rec, nil
}
