package technicians

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/internal/users"
	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
	"github.com/fixmate-lk/fixmate-backend/pkg/enums"
	pkgerrors "github.com/fixmate-lk/fixmate-backend/pkg/errors"
	"github.com/fixmate-lk/fixmate-backend/pkg/logger"
	"github.com/fixmate-lk/fixmate-backend/pkg/mailer"
	"github.com/fixmate-lk/fixmate-backend/pkg/pagination"
)

const documentScope = "technician-documents"

// DocumentStore persists verification documents and returns their public URL.
type DocumentStore interface {
	Save(ctx context.Context, scope, filename string, r io.Reader, maxBytes int64) (string, error)
	Remove(ctx context.Context, publicURL string) error
}

// VerificationNotifier delivers in-app notifications for verification
// outcomes. Failures are logged, never surfaced to the admin.
type VerificationNotifier interface {
	TechnicianVerified(ctx context.Context, userID uuid.UUID) error
	TechnicianRejected(ctx context.Context, userID uuid.UUID, reason string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines technician profile and verification operations.
type Service interface {
	GetOwn(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error)
	UploadDocument(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, maxBytes int64) (*Profile, error)
	ListPending(ctx context.Context, params ListPendingParams) (*ListPendingResult, error)
	GetVerificationRequest(ctx context.Context, id uuid.UUID) (*Profile, error)
	Approve(ctx context.Context, id uuid.UUID) (*Profile, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*Profile, error)
}

type service struct {
	repo      Repository
	users     users.Repository
	documents DocumentStore
	notifier  VerificationNotifier
	mail      mailer.Sender
	tx        txRunner
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the technicians dependencies.
func NewService(
	repo Repository,
	userRepo users.Repository,
	documents DocumentStore,
	notifier VerificationNotifier,
	mail mailer.Sender,
	tx txRunner,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "technicians repository required")
	}
	if userRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if documents == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document store required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	if mail == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:      repo,
		users:     userRepo,
		documents: documents,
		notifier:  notifier,
		mail:      mail,
		tx:        tx,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) GetOwn(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	technician, err := s.loadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := ToProfile(technician)
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	technician, err := s.loadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Bio != nil {
		technician.Bio = trimPtr(input.Bio)
	}
	if input.Skills != nil {
		technician.Skills = trimPtr(input.Skills)
	}
	if input.ServiceArea != nil {
		technician.ServiceArea = trimPtr(input.ServiceArea)
	}
	if input.YearsOfExperience != nil {
		if *input.YearsOfExperience < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "years of experience cannot be negative")
		}
		technician.YearsOfExperience = *input.YearsOfExperience
	}
	if input.Availability != nil {
		availability, err := enums.ParseAvailabilityStatus(strings.TrimSpace(*input.Availability))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability")
		}
		technician.Availability = availability
	}

	if err := s.repo.Update(ctx, technician); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update technician")
	}

	profile := ToProfile(technician)
	return &profile, nil
}

// UploadDocument stores a verification document. Re-uploading after a
// rejection puts the technician back into the review queue.
func (s *service) UploadDocument(ctx context.Context, userID uuid.UUID, filename string, r io.Reader, maxBytes int64) (*Profile, error) {
	technician, err := s.loadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.documents.Save(ctx, documentScope, filename, r, maxBytes)
	if err != nil {
		return nil, err
	}

	previous := technician.DocumentURL
	technician.DocumentURL = &url
	if technician.VerificationStatus == enums.VerificationStatusRejected {
		technician.VerificationStatus = enums.VerificationStatusPending
		technician.RejectionReason = nil
	}

	if err := s.repo.Update(ctx, technician); err != nil {
		if removeErr := s.documents.Remove(ctx, url); removeErr != nil {
			s.logg.Error(ctx, "removing orphaned document failed", removeErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update technician")
	}

	if previous != nil && *previous != url {
		if err := s.documents.Remove(ctx, *previous); err != nil {
			s.logg.Error(ctx, "removing replaced document failed", err)
		}
	}

	profile := ToProfile(technician)
	return &profile, nil
}

func (s *service) ListPending(ctx context.Context, params ListPendingParams) (*ListPendingResult, error) {
	query := listParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByVerificationStatus(ctx, enums.VerificationStatusPending, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list verification requests")
	}

	items := make([]Profile, 0, len(rows))
	for i := range rows {
		items = append(items, ToProfile(&rows[i]))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListPendingResult{Items: items, Cursor: cursor}, nil
}

func (s *service) GetVerificationRequest(ctx context.Context, id uuid.UUID) (*Profile, error) {
	technician, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}
	if technician == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "verification request not found")
	}
	profile := ToProfile(technician)
	return &profile, nil
}

// Approve marks a pending technician verified and activates their account.
// The decision email and notification are best-effort.
func (s *service) Approve(ctx context.Context, id uuid.UUID) (*Profile, error) {
	technician, err := s.decide(ctx, id, verificationUpdate{
		Status:     enums.VerificationStatusVerified,
		VerifiedAt: ptrTime(s.now()),
	}, enums.UserStatusActive)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.TechnicianVerified(ctx, technician.UserID); err != nil {
		s.logg.Error(ctx, "publishing verification notification failed", err)
	}
	s.sendDecisionEmail(ctx, technician, "Your FixMate verification was approved",
		"Congratulations, your technician profile has been verified. You can now accept bookings.")

	profile := ToProfile(technician)
	return &profile, nil
}

// Reject marks a pending technician rejected and deactivates their account.
func (s *service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Profile, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	technician, err := s.decide(ctx, id, verificationUpdate{
		Status:          enums.VerificationStatusRejected,
		RejectionReason: &reason,
	}, enums.UserStatusInactive)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.TechnicianRejected(ctx, technician.UserID, reason); err != nil {
		s.logg.Error(ctx, "publishing verification notification failed", err)
	}
	s.sendDecisionEmail(ctx, technician, "Your FixMate verification was rejected",
		fmt.Sprintf("Your technician verification was rejected: %s. You may upload new documents and try again.", reason))

	profile := ToProfile(technician)
	return &profile, nil
}

// decide applies a verification decision and the matching account status in
// one transaction. Only pending requests can be decided.
func (s *service) decide(ctx context.Context, id uuid.UUID, update verificationUpdate, userStatus enums.UserStatus) (*models.Technician, error) {
	technician, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}
	if technician == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "verification request not found")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		updated, err := s.repo.WithTx(tx).SetVerification(ctx, id, update)
		if err != nil {
			return err
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeConflict, "verification request is not pending")
		}
		return s.users.WithTx(tx).UpdateStatus(ctx, technician.UserID, userStatus)
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply verification decision")
	}

	technician.VerificationStatus = update.Status
	technician.RejectionReason = update.RejectionReason
	technician.VerifiedAt = update.VerifiedAt
	return technician, nil
}

func (s *service) sendDecisionEmail(ctx context.Context, technician *models.Technician, subject, body string) {
	if technician.User == nil || technician.User.Email == "" {
		return
	}
	err := s.mail.Send(ctx, mailer.Message{
		To:      technician.User.Email,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		s.logg.Error(ctx, "sending verification email failed", err)
	}
}

func (s *service) loadByUser(ctx context.Context, userID uuid.UUID) (*models.Technician, error) {
	technician, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load technician")
	}
	if technician == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "technician profile not found")
	}
	return technician, nil
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

func ptrTime(t time.Time) *time.Time {
	return &t
}
