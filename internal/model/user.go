// Package model はドメインモデルを定義する。
package model

import "time"

// RoleAdmin は管理者ロール。現状すべてのユーザーがこのロールを持つ。
const RoleAdmin = "admin"

// User は管理画面にログインするユーザーを表す。
// セルフ登録は存在せず、起動時のシードでのみ作成される。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Identity はリクエストに紐づく認証済みユーザーの情報。
// セッションが有効な場合のみリクエストコンテキストに格納される。
type Identity struct {
	UserID    int64
	Name      string
	Role      string
	SessionID string
}
