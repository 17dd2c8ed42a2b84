package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/brightsmile/internal/model"
)

// PostgresAppointmentRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresAppointmentRepo struct {
	db *sql.DB
}

// NewPostgresAppointmentRepo はPostgresAppointmentRepoを生成する。
func NewPostgresAppointmentRepo(db *sql.DB) *PostgresAppointmentRepo {
	return &PostgresAppointmentRepo{db: db}
}

// ListWithServiceTitle は全予約をサービス名とLEFT JOINし、作成日時の新しい順で返す。
// 同時刻の予約はIDの降順で並べる。
func (r *PostgresAppointmentRepo) ListWithServiceTitle(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.phone, a.email, a.service_id, a.date, a.message,
		        a.status, a.created_at, s.title
		 FROM appointments a
		 LEFT JOIN services s ON a.service_id = s.id
		 ORDER BY a.created_at DESC, a.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := []model.Appointment{}
	for rows.Next() {
		var (
			a            model.Appointment
			email        sql.NullString
			serviceID    sql.NullInt64
			message      sql.NullString
			serviceTitle sql.NullString
		)
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Phone, &email, &serviceID, &a.Date, &message,
			&a.Status, &a.CreatedAt, &serviceTitle,
		); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		a.Email = email.String
		a.Message = message.String
		a.ServiceTitle = serviceTitle.String
		if serviceID.Valid {
			id := serviceID.Int64
			a.ServiceID = &id
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return appointments, nil
}

// Create は予約を作成し、ID・ステータス・作成日時を設定する。
// ステータスは常にPending、作成日時はDBのnow()で採番する。
func (r *PostgresAppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	var serviceID sql.NullInt64
	if a.ServiceID != nil {
		serviceID = sql.NullInt64{Int64: *a.ServiceID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO appointments (name, phone, email, service_id, date, message, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, status, created_at`,
		a.Name, a.Phone, nullString(a.Email), serviceID, a.Date, nullString(a.Message),
		model.AppointmentStatusPending,
	).Scan(&a.ID, &a.Status, &a.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMissingReference
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

// UpdateStatus はステータスを更新し、更新件数を返す。
func (r *PostgresAppointmentRepo) UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update appointment status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// DeleteByID は予約を削除し、削除件数を返す。
func (r *PostgresAppointmentRepo) DeleteByID(ctx context.Context, id int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM appointments WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete appointment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// nullString は空文字列をNULLとして保存するための変換を行う。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ AppointmentRepository = (*PostgresAppointmentRepo)(nil)
