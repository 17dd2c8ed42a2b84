package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrReferenced は他テーブルから参照されているため削除できない場合に返す。
	ErrReferenced = errors.New("row is referenced by other rows")

	// ErrMissingReference は外部キーの参照先が存在しない場合に返す。
	ErrMissingReference = errors.New("referenced row does not exist")
)

// foreignKeyViolation はPostgreSQLの外部キー制約違反のSQLSTATE。
const foreignKeyViolation = "23503"

// isForeignKeyViolation はエラーが外部キー制約違反かどうかを判定する。
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == foreignKeyViolation
	}
	return false
}
