package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateEmail はusers.emailのUNIQUE制約違反を表す。
var ErrDuplicateEmail = errors.New("email already registered")

// uniqueViolationCode はPostgreSQLのunique_violationエラーコード。
const uniqueViolationCode = "23505"

// isUniqueViolation はエラーがUNIQUE制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}
