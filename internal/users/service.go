package users

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

// AvatarStore persists avatar uploads and returns their public URL.
type AvatarStore interface {
	Save(ctx context.Context, scope, filename string, r io.Reader, maxBytes int64) (string, error)
	Remove(ctx context.Context, publicURL string) error
}

// Service defines profile operations.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, maxBytes int64) (*Profile, error)
	AdminList(ctx context.Context, params AdminListParams) (*AdminListResult, error)
	SetStatus(ctx context.Context, userID uuid.UUID, status string) (*Profile, error)
}

type service struct {
	repo    Repository
	avatars AvatarStore
}

// NewService wires the users dependencies.
func NewService(repo Repository, avatars AvatarStore) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if avatars == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "avatar store required")
	}
	return &service{repo: repo, avatars: avatars}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	profile := ToProfile(user)
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	user.FullName = fullName
	user.Phone = trimPtr(input.Phone)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}

	profile := ToProfile(user)
	return &profile, nil
}

func (s *service) UpdateAvatar(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, maxBytes int64) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	url, err := s.avatars.Save(ctx, "avatars", filename, r, maxBytes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "store avatar")
	}

	previous := user.AvatarURL
	user.AvatarURL = &url
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}

	if previous != nil {
		// Stale avatar cleanup is best effort.
		_ = s.avatars.Remove(ctx, *previous)
	}

	profile := ToProfile(user)
	return &profile, nil
}

func (s *service) AdminList(ctx context.Context, params AdminListParams) (*AdminListResult, error) {
	query := listUsersParams{Limit: params.Limit}

	if params.Role != nil {
		role, err := enums.ParseUserRole(*params.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role filter")
		}
		query.Role = &role
	}
	if params.Status != nil {
		status, err := enums.ParseUserStatus(*params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Status = &status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	items := make([]Profile, 0, len(rows))
	for i := range rows {
		items = append(items, ToProfile(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &AdminListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) SetStatus(ctx context.Context, userID uuid.UUID, status string) (*Profile, error) {
	parsed, err := enums.ParseUserStatus(status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	// Admins only toggle accounts on and off; verification owns the rest.
	if parsed != enums.UserStatusActive && parsed != enums.UserStatusSuspended {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be active or suspended")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	if user.Status != parsed {
		if err := s.repo.UpdateStatus(ctx, userID, parsed); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user status")
		}
		user.Status = parsed
	}

	profile := ToProfile(user)
	return &profile, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
