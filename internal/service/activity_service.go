package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/engtrack/internal/audit"
	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/internal/observability"
	"github.com/noah-isme/engtrack/internal/repository"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

var (
	// ErrActivityNotFound indicates the activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrForbidden indicates the actor lacks the role required for the operation.
	ErrForbidden = errors.New("operation not permitted")
)

// Stored-name prefixes per attachment kind.
const (
	PrefixActivityAttachment = "act"
	PrefixOrderImage         = "img"
	PrefixOrderFile          = "file"
)

// Actor is the signed-in user performing an operation.
type Actor struct {
	ID    uint
	Login string
	Name  string
	Role  string
}

// ActorFromUser builds the actor for an authenticated account.
func ActorFromUser(user models.User) Actor {
	return Actor{ID: user.ID, Login: user.Login, Name: user.DisplayName(), Role: user.Role()}
}

// IsAdmin reports whether the actor may perform administrative operations.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// DisplayName is recorded as responsible party and history author.
func (a Actor) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.Login
}

// Upload is a file submitted with a form. A nil upload or an empty filename means no file.
// Size is the payload length in bytes, zero when unknown.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

func (u *Upload) present() bool {
	return u != nil && u.Body != nil && strings.TrimSpace(u.Filename) != ""
}

// length returns the declared size, falling back to readers that know their own length.
// It returns -1 when the size cannot be told before reading.
func (u *Upload) length() int64 {
	if u.Size > 0 {
		return u.Size
	}
	if sized, ok := u.Body.(interface{ Size() int64 }); ok {
		return sized.Size()
	}
	return -1
}

// AttachmentStore persists uploaded files.
type AttachmentStore interface {
	Store(ctx context.Context, category filestore.Category, prefix, originalName string, reader io.Reader) (string, error)
	Delete(ctx context.Context, category filestore.Category, name string) error
	Fits(size int64) bool
}

// ActivityService manages activities and their change history.
type ActivityService interface {
	Create(ctx context.Context, actor Actor, req dto.ActivityCreateRequest, upload *Upload) (dto.ActivityCreateResult, error)
	Get(ctx context.Context, id uint) (models.Activity, error)
	Board(ctx context.Context) (dto.ActivityBoard, error)
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.ActivityUpdateRequest, upload *Upload) (dto.ActivityUpdateResult, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type activityService struct {
	repo      repository.ActivityRepository
	files     AttachmentStore
	notifier  ChangeNotifier
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewActivityService constructs the activity service.
func NewActivityService(repo repository.ActivityRepository, files AttachmentStore, notifier ChangeNotifier, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	if notifier == nil {
		notifier = noopChangeNotifier{}
	}
	return &activityService{
		repo:      repo,
		files:     files,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
		now:       time.Now,
	}
}

func (s *activityService) Create(ctx context.Context, actor Actor, req dto.ActivityCreateRequest, upload *Upload) (dto.ActivityCreateResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.CostCenter = strings.TrimSpace(req.CostCenter)
	req.Priority = strings.TrimSpace(req.Priority)
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityCreateResult{}, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityLow
	}

	now := s.now()
	activity := models.Activity{
		Name:             req.Name,
		Priority:         priority,
		Status:           models.StatusStarted,
		CostCenter:       req.CostCenter,
		Responsible:      actor.DisplayName(),
		OrderRef:         optional(req.OrderRef),
		DeliveryLocation: optional(req.DeliveryLocation),
		Requester:        optional(req.Requester),
		Destination:      optional(req.Destination),
		Notes:            optional(req.Notes),
		CreatedAt:        now,
	}

	result := dto.ActivityCreateResult{}
	stored, ignored, err := s.storeAttachment(ctx, upload)
	if err != nil {
		return dto.ActivityCreateResult{}, err
	}
	result.AttachmentIgnored = ignored
	if stored != "" {
		activity.Attachment = &stored
	}

	changes := audit.CreationChanges(&activity)
	err = s.repo.Create(ctx, &activity, func(activityID uint) []models.HistoryEntry {
		return audit.Entries(activityID, changes, actor.DisplayName(), now)
	})
	if err != nil {
		s.discard(ctx, stored)
		return dto.ActivityCreateResult{}, fmt.Errorf("failed to create activity: %w", err)
	}

	recordHistoryMetrics(changes)
	s.logger.Info().Uint("activity_id", activity.ID).Str("actor", actor.Login).Msg("activity created")
	s.notifier.Notify(ctx, changeEvent(dto.ActivityEventCreated, activity, actor, now, changes))

	result.ID = activity.ID
	return result, nil
}

func (s *activityService) Get(ctx context.Context, id uint) (models.Activity, error) {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, err
	}
	return activity, nil
}

func (s *activityService) Board(ctx context.Context) (dto.ActivityBoard, error) {
	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		return dto.ActivityBoard{}, err
	}
	completed, err := s.repo.ListCompleted(ctx)
	if err != nil {
		return dto.ActivityBoard{}, err
	}
	return dto.ActivityBoard{InProgress: open, Completed: completed}, nil
}

func (s *activityService) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.ListRecent(ctx, limit)
}

// Update applies an edit. A replacement attachment is handled first, then every tracked
// field is compared. The entity and one history row per change are committed together;
// an edit without differences writes nothing.
func (s *activityService) Update(ctx context.Context, actor Actor, id uint, req dto.ActivityUpdateRequest, upload *Upload) (dto.ActivityUpdateResult, error) {
	activity, err := s.Get(ctx, id)
	if err != nil {
		return dto.ActivityUpdateResult{}, err
	}

	if err := s.validateUpdate(req); err != nil {
		return dto.ActivityUpdateResult{}, err
	}

	result := dto.ActivityUpdateResult{}
	var changes []audit.Change
	stored := ""

	if upload.present() {
		if !filestore.Allowed(upload.Filename) {
			result.AttachmentIgnored = true
			observability.Attachments().WithLabelValues(string(filestore.CategoryActivities), "rejected").Inc()
		} else {
			// A replacement that cannot be stored is refused before the current file goes.
			if size := upload.length(); size >= 0 && !s.files.Fits(size) {
				observability.Attachments().WithLabelValues(string(filestore.CategoryActivities), "failed").Inc()
				return dto.ActivityUpdateResult{}, fmt.Errorf("failed to store attachment: %w", filestore.ErrTooLarge)
			}
			previous := activity.Attachment
			if previous != nil && *previous != "" {
				if err := s.files.Delete(ctx, filestore.CategoryActivities, *previous); err != nil {
					s.logger.Warn().Err(err).Str("stored_name", *previous).Msg("failed to remove replaced attachment")
				}
			}
			var ignored bool
			stored, ignored, err = s.storeAttachment(ctx, upload)
			if err != nil {
				return dto.ActivityUpdateResult{}, err
			}
			result.AttachmentIgnored = ignored
			if stored != "" {
				changes = append(changes, audit.AttachmentChange(previous, stored))
				activity.Attachment = &stored
			}
		}
	}

	changes = append(changes, audit.Diff(&activity, audit.Values(req))...)
	if len(changes) == 0 {
		return result, nil
	}

	now := s.now()
	activity.Responsible = actor.DisplayName()
	entries := audit.Entries(activity.ID, changes, actor.DisplayName(), now)
	if err := s.repo.UpdateWithHistory(ctx, &activity, entries); err != nil {
		s.discard(ctx, stored)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityUpdateResult{}, ErrActivityNotFound
		}
		return dto.ActivityUpdateResult{}, fmt.Errorf("failed to update activity: %w", err)
	}

	recordHistoryMetrics(changes)
	s.logger.Info().Uint("activity_id", activity.ID).Str("actor", actor.Login).Int("changes", len(changes)).Msg("activity updated")
	s.notifier.Notify(ctx, changeEvent(dto.ActivityEventUpdated, activity, actor, now, changes))

	result.Changed = len(changes)
	return result, nil
}

// Delete removes the activity with its history. The stored attachment is removed after
// the database commit.
func (s *activityService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	activity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, activity.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	if activity.Attachment != nil && *activity.Attachment != "" {
		if err := s.files.Delete(ctx, filestore.CategoryActivities, *activity.Attachment); err != nil {
			s.logger.Warn().Err(err).Str("stored_name", *activity.Attachment).Msg("failed to remove attachment of deleted activity")
		}
	}

	s.logger.Info().Uint("activity_id", activity.ID).Str("actor", actor.Login).Msg("activity deleted")
	s.notifier.Notify(ctx, changeEvent(dto.ActivityEventDeleted, activity, actor, s.now(), nil))
	return nil
}

type activityEdit struct {
	Name       string `validate:"required,max=200"`
	CostCenter string `validate:"required,max=100"`
	Priority   string `validate:"omitempty,oneof=P-1 P-2 P-3"`
	Status     string `validate:"max=50"`
}

func (s *activityService) validateUpdate(req dto.ActivityUpdateRequest) error {
	return s.validator.Struct(activityEdit{
		Name:       strings.TrimSpace(deref(req.Name)),
		CostCenter: strings.TrimSpace(deref(req.CostCenter)),
		Priority:   deref(req.Priority),
		Status:     deref(req.Status),
	})
}

// storeAttachment writes the upload when one is present. A disallowed extension is
// reported through the ignored flag rather than as an error.
func (s *activityService) storeAttachment(ctx context.Context, upload *Upload) (string, bool, error) {
	if !upload.present() {
		return "", false, nil
	}

	category := string(filestore.CategoryActivities)
	stored, err := s.files.Store(ctx, filestore.CategoryActivities, PrefixActivityAttachment, upload.Filename, upload.Body)
	if err != nil {
		if errors.Is(err, filestore.ErrExtensionNotAllowed) {
			observability.Attachments().WithLabelValues(category, "rejected").Inc()
			return "", true, nil
		}
		observability.Attachments().WithLabelValues(category, "failed").Inc()
		return "", false, fmt.Errorf("failed to store attachment: %w", err)
	}

	observability.Attachments().WithLabelValues(category, "stored").Inc()
	return stored, false, nil
}

func (s *activityService) discard(ctx context.Context, stored string) {
	if stored == "" {
		return
	}
	if err := s.files.Delete(ctx, filestore.CategoryActivities, stored); err != nil {
		s.logger.Warn().Err(err).Str("stored_name", stored).Msg("failed to remove orphaned attachment")
	}
}

func recordHistoryMetrics(changes []audit.Change) {
	for _, change := range changes {
		observability.HistoryEntries().WithLabelValues(change.Field).Inc()
	}
}

func changeEvent(kind string, activity models.Activity, actor Actor, at time.Time, changes []audit.Change) dto.ActivityChangeEvent {
	event := dto.ActivityChangeEvent{
		Type:       kind,
		ActivityID: activity.ID,
		Name:       activity.Name,
		Actor:      actor.DisplayName(),
		OccurredAt: at.UTC(),
	}
	for _, change := range changes {
		event.Changes = append(event.Changes, dto.ActivityFieldDelta{Field: change.Field, Old: change.Old, New: change.New})
	}
	return event
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
