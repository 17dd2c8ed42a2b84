// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/brightsmile/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateIfAbsent は同じメールアドレスのユーザーが存在しない場合のみ作成する。
	// 作成した場合はtrueを返し、user.IDに採番されたIDを設定する。
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindIdentity は指定IDのセッションをユーザー情報と結合して取得する。
	// 存在しない場合や期限切れの場合はnilを返す。
	FindIdentity(ctx context.Context, id string) (*model.Identity, error)

	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}

// ServiceOrder はサービス一覧の並び順。
type ServiceOrder int

const (
	// ServiceOrderByID はID昇順（登録順）。
	ServiceOrderByID ServiceOrder = iota
	// ServiceOrderByTitle はタイトル昇順。予約フォームの選択肢で使う。
	ServiceOrderByTitle
)

// ServiceRepository は診療メニューの永続化インターフェース。
type ServiceRepository interface {
	// List はサービス一覧を返す。limitが0以下の場合は全件を返す。
	List(ctx context.Context, order ServiceOrder, limit int) ([]model.Service, error)

	// FindByID は指定IDのサービスを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Service, error)

	// Create はサービスを作成し、service.IDに採番されたIDを設定する。
	Create(ctx context.Context, service *model.Service) error

	// Update はタイトルと説明を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, service *model.Service) (bool, error)

	// DeleteUnreferenced は予約から参照されていない場合のみサービスを削除する。
	// 参照されている場合はErrReferencedを返し、対象が存在しない場合はfalseを返す。
	DeleteUnreferenced(ctx context.Context, id int64) (bool, error)

	// SeedIfEmpty はテーブルが空の場合のみ指定のサービスを一括登録し、登録件数を返す。
	SeedIfEmpty(ctx context.Context, services []model.Service) (int, error)
}

// AppointmentRepository は予約データの永続化インターフェース。
type AppointmentRepository interface {
	// ListWithServiceTitle は全予約をサービス名とLEFT JOINし、作成日時の新しい順で返す。
	ListWithServiceTitle(ctx context.Context) ([]model.Appointment, error)

	// Create は予約を作成し、ID・ステータス・作成日時を設定する。
	// 参照先サービスが存在しない場合はErrMissingReferenceを返す。
	Create(ctx context.Context, appointment *model.Appointment) error

	// UpdateStatus はステータスを更新し、更新件数を返す。
	UpdateStatus(ctx context.Context, id int64, status model.AppointmentStatus) (int64, error)

	// DeleteByID は予約を削除し、削除件数を返す。
	DeleteByID(ctx context.Context, id int64) (int64, error)
}
