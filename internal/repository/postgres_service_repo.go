package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/brightsmile/internal/model"
)

// seedAdvisoryLockKey はサービスの初期登録を直列化するアドバイザリーロックのキー。
const seedAdvisoryLockKey = 0x5e1d5e7c

// PostgresServiceRepo はPostgreSQLを使用した診療メニューリポジトリ。
type PostgresServiceRepo struct {
	db *sql.DB
}

// NewPostgresServiceRepo はPostgresServiceRepoを生成する。
func NewPostgresServiceRepo(db *sql.DB) *PostgresServiceRepo {
	return &PostgresServiceRepo{db: db}
}

// List はサービス一覧を返す。limitが0以下の場合は全件を返す。
// ORDER BY句はServiceOrderから固定文字列で選び、外部入力を連結しない。
func (r *PostgresServiceRepo) List(ctx context.Context, order ServiceOrder, limit int) ([]model.Service, error) {
	orderBy := "id"
	if order == ServiceOrderByTitle {
		orderBy = "title, id"
	}

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, title, description FROM services ORDER BY `+orderBy+` LIMIT $1`,
			limit,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, title, description FROM services ORDER BY `+orderBy,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []model.Service{}
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Title, &s.Description); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}

	return services, nil
}

// FindByID は指定IDのサービスを取得する。見つからない場合はnilを返す。
func (r *PostgresServiceRepo) FindByID(ctx context.Context, id int64) (*model.Service, error) {
	s := &model.Service{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description FROM services WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Title, &s.Description)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}

	return s, nil
}

// Create はサービスを作成し、service.IDに採番されたIDを設定する。
func (r *PostgresServiceRepo) Create(ctx context.Context, service *model.Service) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO services (title, description) VALUES ($1, $2) RETURNING id`,
		service.Title, service.Description,
	).Scan(&service.ID)
	if err != nil {
		return fmt.Errorf("failed to insert service: %w", err)
	}
	return nil
}

// Update はタイトルと説明を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresServiceRepo) Update(ctx context.Context, service *model.Service) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE services SET title = $1, description = $2 WHERE id = $3`,
		service.Title, service.Description, service.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update service: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteUnreferenced は予約から参照されていない場合のみサービスを削除する。
//
// サービス行をFOR UPDATEでロックしてから参照件数を数えるため、
// 並行する予約作成（外部キー検査でFOR KEY SHAREを取る）はこのトランザクションの完了を待つ。
// それでも外部キー違反が発生した場合はErrReferencedとして扱う。
func (r *PostgresServiceRepo) DeleteUnreferenced(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM services WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock service: %w", err)
	}

	var refs int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE service_id = $1`,
		id,
	).Scan(&refs); err != nil {
		return false, fmt.Errorf("failed to count appointments for service: %w", err)
	}
	if refs > 0 {
		return false, ErrReferenced
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrReferenced
		}
		return false, fmt.Errorf("failed to delete service: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrReferenced
		}
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// SeedIfEmpty はテーブルが空の場合のみ指定のサービスを一括登録し、登録件数を返す。
// トランザクションスコープのアドバイザリーロックで複数プロセスの同時起動を直列化する。
func (r *PostgresServiceRepo) SeedIfEmpty(ctx context.Context, services []model.Service) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, seedAdvisoryLockKey); err != nil {
		return 0, fmt.Errorf("failed to acquire seed lock: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM services`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, s := range services {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO services (title, description) VALUES ($1, $2)`,
			s.Title, s.Description,
		); err != nil {
			return 0, fmt.Errorf("failed to insert seed service %q: %w", s.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(services), nil
}

// compile-time interface check
var _ ServiceRepository = (*PostgresServiceRepo)(nil)
