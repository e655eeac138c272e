package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/metrics"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines notification creation (fan-out) and read operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	ListAdmin(ctx context.Context, params AdminListParams) (*AdminListResult, error)
	Feed(ctx context.Context, params FeedParams) (*FeedResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	domain *metrics.DomainMetrics
	now    func() time.Time
}

// NewService wires the notifications dependencies.
func NewService(repo Repository, tx txRunner, domain *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		domain: domain,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create resolves the audience, deduplicates it, and persists the
// notification with its recipient rows in a single transaction. A target
// that resolves to nobody still records the notification; it just
// reaches no one.
func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if message == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	targetType, err := enums.ParseNotificationTargetType(strings.TrimSpace(input.TargetType))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target type")
	}
	category := enums.NormalizeNotificationCategory(input.Category)

	var targetRole *enums.UserRole
	if targetType == enums.NotificationTargetRole && input.TargetRole != nil {
		role, err := enums.ParseUserRole(strings.TrimSpace(*input.TargetRole))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target role")
		}
		targetRole = &role
	}
	var targetUserID *uuid.UUID
	if targetType == enums.NotificationTargetUser && input.TargetUserID != nil && *input.TargetUserID != uuid.Nil {
		id := *input.TargetUserID
		targetUserID = &id
	}

	recipients, err := s.resolveAudience(ctx, targetType, targetRole, targetUserID)
	if err != nil {
		return nil, err
	}

	notification := &models.Notification{
		ID:           uuid.New(),
		Title:        title,
		Message:      message,
		Category:     category,
		TargetType:   targetType,
		TargetRole:   targetRole,
		TargetUserID: targetUserID,
		CreatedBy:    input.CreatedBy,
	}

	rows := make([]models.NotificationRecipient, 0, len(recipients))
	for _, userID := range recipients {
		rows = append(rows, models.NotificationRecipient{
			ID:             uuid.New(),
			NotificationID: notification.ID,
			UserID:         userID,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, notification); err != nil {
			return err
		}
		return repo.CreateRecipients(ctx, rows)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}

	s.domain.ObserveFanout(targetType.String(), len(recipients))
	return &CreateResult{Notification: notification, Recipients: len(recipients)}, nil
}

// resolveAudience maps a target onto user ids. A role target without a
// role, or a user target without an id, resolves to an empty audience.
func (s *service) resolveAudience(ctx context.Context, targetType enums.NotificationTargetType, role *enums.UserRole, userID *uuid.UUID) ([]uuid.UUID, error) {
	var (
		resolved []uuid.UUID
		err      error
	)
	switch {
	case targetType == enums.NotificationTargetAll:
		resolved, err = s.repo.ResolveAllUserIDs(ctx)
	case targetType == enums.NotificationTargetRole && role != nil:
		resolved, err = s.repo.ResolveUserIDsByRole(ctx, *role)
	case targetType == enums.NotificationTargetUser && userID != nil:
		resolved, err = s.repo.FilterExistingUserIDs(ctx, []uuid.UUID{*userID})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve audience")
	}
	return dedupe(resolved), nil
}

func (s *service) ListAdmin(ctx context.Context, params AdminListParams) (*AdminListResult, error) {
	query := adminListParams{
		Limit:    params.Limit,
		Category: params.Category,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	items, next, err := s.repo.ListAdmin(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	total, err := s.repo.CountAdmin(ctx, params.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &AdminListResult{Items: items, Cursor: cursor, Total: total}, nil
}

func (s *service) Feed(ctx context.Context, params FeedParams) (*FeedResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := feedListParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	items, next, err := s.repo.ListForUser(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &FeedResult{Items: items, Cursor: cursor, Unread: unread}, nil
}

// MarkRead is idempotent: marking an already-read notification succeeds
// without touching the stored timestamp.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
