package postgres

import (
	apperrors "github.com/darkkaiser/band-order-server/internal/pkg/errors"
)

// NewErrInvalidDSN 데이터베이스 접속 문자열을 해석할 수 없을 때 반환하는 에러를 생성합니다.
func NewErrInvalidDSN(err error) error {
	return apperrors.Wrap(err, apperrors.InvalidInput, "데이터베이스 설정 오류: 접속 문자열(DSN)을 해석할 수 없습니다")
}

// NewErrConnectFailed 데이터베이스 연결에 실패했을 때 반환하는 에러를 생성합니다.
func NewErrConnectFailed(err error) error {
	return apperrors.Wrap(err, apperrors.System, "데이터베이스 연결 실패: PostgreSQL 서버에 연결할 수 없습니다")
}
