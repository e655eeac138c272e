package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications and their
// per-recipient state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	CreateRecipients(ctx context.Context, recipients []models.NotificationRecipient) error
	ResolveAllUserIDs(ctx context.Context) ([]uuid.UUID, error)
	ResolveUserIDsByRole(ctx context.Context, role enums.UserRole) ([]uuid.UUID, error)
	FilterExistingUserIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	ListAdmin(ctx context.Context, params adminListParams) ([]AdminItem, *pagination.Cursor, error)
	CountAdmin(ctx context.Context, category *enums.NotificationCategory) (int64, error)
	ListForUser(ctx context.Context, params feedListParams) ([]FeedItem, *pagination.Cursor, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type adminListParams struct {
	Limit    int
	Cursor   *pagination.Cursor
	Category *enums.NotificationCategory
}

type feedListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type markResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) CreateRecipients(ctx context.Context, recipients []models.NotificationRecipient) error {
	if len(recipients) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(recipients, 500).Error
}

// Broadcast and role audiences only reach active accounts. Direct user
// targets skip the status filter so account-state notices still land.
func (r *repositoryImpl) ResolveAllUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("status = ?", enums.UserStatusActive).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repositoryImpl) ResolveUserIDsByRole(ctx context.Context, role enums.UserRole) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND status = ?", role, enums.UserStatusActive).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repositoryImpl) FilterExistingUserIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var existing []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	return existing, err
}

func (r *repositoryImpl) ListAdmin(ctx context.Context, params adminListParams) ([]AdminItem, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Notification{})
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(notifications) > normalized {
		overflow := notifications[normalized]
		notifications = notifications[:normalized]
		next = &pagination.Cursor{CreatedAt: overflow.CreatedAt, ID: overflow.ID}
	}

	items := make([]AdminItem, 0, len(notifications))
	for _, n := range notifications {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.NotificationRecipient{}).
			Where("notification_id = ?", n.ID).
			Count(&count).Error; err != nil {
			return nil, nil, err
		}
		items = append(items, AdminItem{Notification: n, RecipientCount: count})
	}
	return items, next, nil
}

func (r *repositoryImpl) CountAdmin(ctx context.Context, category *enums.NotificationCategory) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{})
	if category != nil {
		query = query.Where("category = ?", *category)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *repositoryImpl) ListForUser(ctx context.Context, params feedListParams) ([]FeedItem, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Table("notification_recipients AS nr").
		Select("n.id, n.title, n.message, n.category, n.target_type AS target, nr.read_at, n.created_at").
		Joins("JOIN notifications AS n ON n.id = nr.notification_id").
		Where("nr.user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("nr.read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(n.created_at, n.id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var items []FeedItem
	if err := query.Order("n.created_at DESC, n.id DESC").Limit(limit).Scan(&items).Error; err != nil {
		return nil, nil, err
	}

	if len(items) > normalized {
		overflow := items[normalized]
		items = items[:normalized]
		return items, &pagination.Cursor{CreatedAt: overflow.CreatedAt, ID: overflow.ID}, nil
	}
	return items, nil, nil
}

func (r *repositoryImpl) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) MarkRead(ctx context.Context, userID, notificationID uuid.UUID, now time.Time) (markResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("notification_id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return markResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return markResult{Updated: true, Found: true}, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error; err != nil {
		return markResult{}, err
	}
	return markResult{Found: count > 0}, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		UpdateColumn("read_at", now)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}
