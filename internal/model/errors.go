// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind はエラーの分類を表す。
// ハンドラーは分類に応じてリダイレクト先とフラッシュの種類を決める。
type ErrorKind string

const (
	// KindValidation は必須入力の欠落や形式不正。ユーザーが修正して再送信する。
	KindValidation ErrorKind = "validation"
	// KindAuthentication は認証情報の誤り。どちらが誤っていたかは伝えない。
	KindAuthentication ErrorKind = "authentication"
	// KindAuthorization はセッションなしでの管理操作。
	KindAuthorization ErrorKind = "authorization"
	// KindReferentialIntegrity は依存レコードが存在するための削除拒否。
	KindReferentialIntegrity ErrorKind = "referential_integrity"
	// KindNotFound は対象IDのレコードが存在しない。
	KindNotFound ErrorKind = "not_found"
	// KindStore は想定外の永続化エラー。詳細はユーザーに見せない。
	KindStore ErrorKind = "store"
)

// AppError は統一エラーフォーマットを表す。
// Messageはそのままユーザーに表示してよい文言のみを持ち、
// 内部の詳細はErrに保持してログにのみ出力する。
type AppError struct {
	Code    string    // エラーコード
	Kind    ErrorKind // 分類
	Message string    // ユーザー向けメッセージ
	Action  string    // ユーザー向け対処方法
	Err     error     // 原因（ログ用）
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is は分類が一致する場合にtrueを返す。
// errors.Is(err, model.ErrNotFound) の形で分類判定に使う。
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == "" && t.Kind == e.Kind
}

// 分類判定用の番兵。errors.Isの比較対象としてのみ使う。
var (
	ErrValidation           = &AppError{Kind: KindValidation}
	ErrAuthentication       = &AppError{Kind: KindAuthentication}
	ErrAuthorization        = &AppError{Kind: KindAuthorization}
	ErrReferentialIntegrity = &AppError{Kind: KindReferentialIntegrity}
	ErrNotFound             = &AppError{Kind: KindNotFound}
	ErrStore                = &AppError{Kind: KindStore}
)

// AsAppError はエラーチェーンからAppErrorを取り出す。
// AppErrorを含まないエラーはStoreErrorとして包み直す。
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewStoreError(err)
}

// 定義済みエラーコード
const (
	ErrCodeRequiredField      = "REQUIRED_FIELD"
	ErrCodeInvalidID          = "INVALID_ID"
	ErrCodeInvalidDate        = "INVALID_DATE"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeUnknownService     = "UNKNOWN_SERVICE"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeLoginRequired      = "LOGIN_REQUIRED"
	ErrCodeServiceInUse       = "SERVICE_IN_USE"
	ErrCodeServiceNotFound    = "SERVICE_NOT_FOUND"
	ErrCodeAppointmentMissing = "APPOINTMENT_NOT_FOUND"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力不備エラーを生成する。
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    KindValidation,
		Message: message,
		Action:  "Correct the form and submit it again.",
	}
}

// NewInvalidIDError はIDが未指定または不正な場合のエラーを生成する。
func NewInvalidIDError(field string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidID,
		Kind:    KindValidation,
		Message: "Invalid request.",
		Action:  fmt.Sprintf("The %s field is missing or malformed.", field),
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスとパスワードのどちらが誤っていたかは区別しない。
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Code:    ErrCodeInvalidCredentials,
		Kind:    KindAuthentication,
		Message: "Invalid email or password.",
		Action:  "Check your credentials and try again.",
	}
}

// NewLoginRequiredError は未ログインで管理操作を行おうとした場合のエラーを生成する。
func NewLoginRequiredError() *AppError {
	return &AppError{
		Code:    ErrCodeLoginRequired,
		Kind:    KindAuthorization,
		Message: "Please log in to access this page.",
		Action:  "Log in with an administrator account.",
	}
}

// NewServiceInUseError は予約から参照されているサービスを削除しようとした場合のエラーを生成する。
func NewServiceInUseError(serviceID int64) *AppError {
	return &AppError{
		Code:    ErrCodeServiceInUse,
		Kind:    KindReferentialIntegrity,
		Message: "Cannot delete service that has appointments. Please remove appointments first.",
		Action:  fmt.Sprintf("Delete the appointments that reference service %d first.", serviceID),
	}
}

// NewServiceNotFoundError はサービスが見つからない場合のエラーを生成する。
func NewServiceNotFoundError(serviceID int64) *AppError {
	return &AppError{
		Code:    ErrCodeServiceNotFound,
		Kind:    KindNotFound,
		Message: "Service not found.",
		Action:  fmt.Sprintf("Service %d may have been deleted already.", serviceID),
	}
}

// NewAppointmentNotFoundError は予約が見つからない場合のエラーを生成する。
func NewAppointmentNotFoundError(appointmentID int64) *AppError {
	return &AppError{
		Code:    ErrCodeAppointmentMissing,
		Kind:    KindNotFound,
		Message: "Appointment not found.",
		Action:  fmt.Sprintf("Appointment %d may have been deleted already.", appointmentID),
	}
}

// NewStoreError は想定外の永続化エラーを包む。
// ユーザーには一般的なメッセージのみを返す。
func NewStoreError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Kind:    KindStore,
		Message: "An error occurred. Please try again.",
		Action:  "Please wait a moment and try again.",
		Err:     err,
	}
}
