// Package appointment は予約の受付と管理のドメインロジックを提供する。
package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/brightsmile/internal/model"
	"github.com/hitoshi/brightsmile/internal/repository"
	"github.com/hitoshi/brightsmile/internal/security"
)

// DateLayout は予約希望日の形式。
const DateLayout = "2006-01-02"

// CreateInput は予約フォームから受け取る値。
// 値はすべてフォームの生の文字列で、検証はService.Createが行う。
type CreateInput struct {
	Name      string
	Phone     string
	Email     string
	ServiceID string
	Date      string
	Time      string
	Message   string
}

// BookingRecorder は予約受付の記録先。
type BookingRecorder interface {
	RecordAppointmentBooked()
}

// Service は予約のサービス層。
type Service struct {
	repo      repository.AppointmentRepository
	sanitizer security.TextSanitizer
	recorder  BookingRecorder
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	repo repository.AppointmentRepository,
	sanitizer security.TextSanitizer,
	recorder BookingRecorder,
) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// List は全予約をサービス名付きで新しい順に返す。
func (s *Service) List(ctx context.Context) ([]model.Appointment, error) {
	appointments, err := s.repo.ListWithServiceTitle(ctx)
	if err != nil {
		return nil, model.NewStoreError(fmt.Errorf("予約一覧の取得に失敗しました: %w", err))
	}
	return appointments, nil
}

// Create は予約を受け付ける。ステータスは常にPendingで作成される。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Appointment, error) {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	rawServiceID := strings.TrimSpace(in.ServiceID)
	date := strings.TrimSpace(in.Date)

	if name == "" || phone == "" || rawServiceID == "" || date == "" {
		return nil, model.NewValidationError(model.ErrCodeRequiredField, "Please fill in all required fields.")
	}

	serviceID, err := strconv.ParseInt(rawServiceID, 10, 64)
	if err != nil || serviceID <= 0 {
		return nil, model.NewValidationError(model.ErrCodeUnknownService, "Please select a valid service.")
	}

	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, model.NewValidationError(model.ErrCodeInvalidDate, "Please choose a valid date.")
	}

	a := &model.Appointment{
		Name:      name,
		Phone:     phone,
		Email:     strings.TrimSpace(in.Email),
		ServiceID: &serviceID,
		Date:      date,
		Message:   s.sanitizer.Sanitize(composeMessage(in.Time, in.Message)),
	}

	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, model.NewValidationError(model.ErrCodeUnknownService, "Please select a valid service.")
		}
		return nil, model.NewStoreError(fmt.Errorf("予約の登録に失敗しました: %w", err))
	}

	if s.recorder != nil {
		s.recorder.RecordAppointmentBooked()
	}
	slog.Info("appointment booked",
		slog.Int64("appointment_id", a.ID),
		slog.Int64("service_id", serviceID),
	)
	return a, nil
}

// composeMessage は希望時間をメッセージの先頭に付け加える。
// 希望時間がない場合はメッセージをそのまま返す。
func composeMessage(preferredTime, message string) string {
	preferredTime = strings.TrimSpace(preferredTime)
	if preferredTime == "" {
		return strings.TrimSpace(message)
	}
	return strings.TrimSpace(fmt.Sprintf("Preferred Time: %s\n\n%s", preferredTime, message))
}

// UpdateStatus は予約のステータスを変更する。
// 対象の予約が存在しない場合は何もせず成功として扱う。
func (s *Service) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) error {
	if id <= 0 {
		return model.NewInvalidIDError("appointment_id")
	}
	if !status.Valid() {
		return model.NewValidationError(model.ErrCodeInvalidStatus, "Invalid request.")
	}

	n, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return model.NewStoreError(fmt.Errorf("予約ステータスの更新に失敗しました: %w", err))
	}
	if n == 0 {
		slog.Warn("status update matched no appointment",
			slog.Int64("appointment_id", id),
			slog.String("status", string(status)),
		)
		return nil
	}

	slog.Info("appointment status updated",
		slog.Int64("appointment_id", id),
		slog.String("status", string(status)),
	)
	return nil
}

// Delete は予約を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.NewInvalidIDError("appointment_id")
	}

	n, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return model.NewStoreError(fmt.Errorf("予約の削除に失敗しました: %w", err))
	}
	if n == 0 {
		return model.NewAppointmentNotFoundError(id)
	}

	slog.Info("appointment deleted", slog.Int64("appointment_id", id))
	return nil
}
