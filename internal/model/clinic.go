// Package model はドメインモデルを定義する。
package model

import "time"

// Service はクリニックが提供する診療メニューを表す。
type Service struct {
	ID          int64
	Title       string
	Description string
}

// Appointment は患者からの予約リクエストを表す。
// 作成後に変更できるのはステータスのみ。
type Appointment struct {
	ID        int64
	Name      string
	Phone     string
	Email     string // 任意。未入力の場合は空文字列
	ServiceID *int64 // サービス削除済みの古いデータではnilになり得る
	Date      string // YYYY-MM-DD
	Message   string // 任意。希望時間を含む場合がある
	Status    AppointmentStatus
	CreatedAt time.Time

	// ServiceTitle は一覧表示用にservicesをLEFT JOINした結果。
	ServiceTitle string
}

// AppointmentStatus は予約の状態を表す。
type AppointmentStatus string

const (
	// AppointmentStatusPending は受付直後の状態。
	AppointmentStatusPending AppointmentStatus = "Pending"
	// AppointmentStatusConfirmed はクリニックが確定した状態。
	AppointmentStatusConfirmed AppointmentStatus = "Confirmed"
	// AppointmentStatusCompleted は診療済みの状態。
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	// AppointmentStatusCancelled はキャンセルされた状態。
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// AppointmentStatuses は管理画面で選択可能なステータスの一覧（表示順）。
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusCompleted,
	AppointmentStatusCancelled,
}

// Valid はステータスが定義済みの値かどうかを判定する。
func (s AppointmentStatus) Valid() bool {
	for _, v := range AppointmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}
