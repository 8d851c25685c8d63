package material

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/electrotrack/internal"
	"github.com/frahmantamala/electrotrack/internal/auth"
	"github.com/frahmantamala/electrotrack/internal/core/events"
	"github.com/frahmantamala/electrotrack/internal/storage"
	"github.com/frahmantamala/electrotrack/internal/workflow"
)

// ListFilter selects requests; a nil UserID lists everyone's. Limit 0
// means no limit.
type ListFilter struct {
	UserID *int64
	Limit  int
	Offset int
}

type Repository interface {
	// CreateBatch inserts all requests in one transaction.
	CreateBatch(ctx context.Context, requests []*Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	// List returns requests newest first with the submitter's username.
	List(ctx context.Context, filter ListFilter) ([]*Request, error)
}

type Service struct {
	repo      Repository
	statuses  workflow.Store
	engine    *workflow.Engine
	policy    *auth.Policy
	checker   auth.PermissionChecker
	photos    storage.Store
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService builds the service. photos may be nil, in which case
// submissions carrying a photo are refused.
func NewService(repo Repository, statuses workflow.Store, engine *workflow.Engine, policy *auth.Policy, checker auth.PermissionChecker, photos storage.Store, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		statuses:  statuses,
		engine:    engine,
		policy:    policy,
		checker:   checker,
		photos:    photos,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit stores one pending request per usable row of dto. Unit,
// description and photo are shared by every row.
func (s *Service) Submit(ctx context.Context, actor *auth.User, dto SubmitDTO) ([]*Request, error) {
	if !s.checker.CanSubmitMaterialRequest(actor) {
		return nil, internal.ErrRoleForbidden
	}

	dto.Normalize()
	lines, err := dto.Validate()
	if err != nil {
		return nil, err
	}

	var photoKey *string
	if dto.Photo != nil {
		key, err := s.storePhoto(ctx, actor.ID, dto.Photo)
		if err != nil {
			return nil, err
		}
		photoKey = &key
	}

	requests := make([]*Request, len(lines))
	for i, line := range lines {
		requests[i] = &Request{
			UserID:      actor.ID,
			ItemName:    line.ItemName,
			Quantity:    line.Quantity,
			Unit:        optional(dto.Unit),
			Description: optional(dto.Description),
			PhotoKey:    photoKey,
			HasPhoto:    photoKey != nil,
			Status:      workflow.StatusPending,
		}
	}

	if err := s.repo.CreateBatch(ctx, requests); err != nil {
		s.logger.Error("failed to create material requests", "error", err, "user_id", actor.ID, "count", len(requests))
		if photoKey != nil {
			if delErr := s.photos.Delete(internal.Detach(ctx), *photoKey); delErr != nil {
				s.logger.Warn("failed to remove orphaned photo", "key", *photoKey, "error", delErr)
			}
		}
		return nil, err
	}

	s.logger.Info("material requests submitted", "user_id", actor.ID, "count", len(requests), "photo", photoKey != nil)

	if s.publisher != nil {
		event := events.NewSubmissionEvent(events.EventTypeMaterialBatch, actor.ID, len(requests))
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
		}
	}
	return requests, nil
}

func (s *Service) storePhoto(ctx context.Context, userID int64, photo *Photo) (string, error) {
	if s.photos == nil {
		return "", ErrStorageDisabled
	}
	contentType, ext, ok := storage.DetectImage(photo.Data)
	if !ok {
		return "", ErrInvalidPhoto
	}

	key := storage.NewKey(PhotoPrefix, photo.Filename, ext)
	err := s.photos.Put(ctx, key, bytes.NewReader(photo.Data), int64(len(photo.Data)), contentType)
	if err != nil {
		s.logger.Error("failed to upload photo", "error", err, "user_id", userID, "key", key)
		return "", internal.NewInternalError("Failed to store the photo, please try again.", err)
	}
	return key, nil
}

// ListVisible returns every request to management and the caller's own
// requests to everyone else.
func (s *Service) ListVisible(ctx context.Context, actor *auth.User, limit, offset int) ([]*Request, error) {
	if actor == nil {
		return nil, internal.ErrRoleForbidden
	}

	filter := ListFilter{Limit: limit, Offset: offset}
	if !s.checker.CanViewManagement(actor) {
		filter.UserID = &actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(actor, auth.ActionView, req.Subject().Resource(auth.LedgerMaterial)) {
		return nil, internal.ErrRoleForbidden
	}
	return req, nil
}

// Photo opens the stored image of a request the actor may view. The caller
// closes the body.
func (s *Service) Photo(ctx context.Context, actor *auth.User, id int64) (*storage.Object, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.PhotoKey == nil || *req.PhotoKey == "" || s.photos == nil {
		return nil, ErrPhotoNotFound
	}

	obj, err := s.photos.Get(ctx, *req.PhotoKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("photo missing from store", "request_id", id, "key", *req.PhotoKey)
			return nil, ErrPhotoNotFound
		}
		return nil, internal.NewInternalError("Failed to load the photo", err)
	}
	return obj, nil
}

func (s *Service) Approve(ctx context.Context, actor *auth.User, id int64) (*Request, error) {
	return s.transition(ctx, actor, id, workflow.ActionApprove)
}

func (s *Service) Reject(ctx context.Context, actor *auth.User, id int64) (*Request, error) {
	return s.transition(ctx, actor, id, workflow.ActionReject)
}

func (s *Service) transition(ctx context.Context, actor *auth.User, id int64, action workflow.Action) (*Request, error) {
	if _, err := s.engine.Apply(ctx, actor, s.statuses, id, action); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
