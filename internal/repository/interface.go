package repository

import (
	"context"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// RecordRepository appends inquiry records to an append-only store.
type RecordRepository interface {
	Append(ctx context.Context, row []string) error
}
