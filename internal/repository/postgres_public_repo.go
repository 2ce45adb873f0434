package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/countboard/internal/model"
)

// globalCounterRowID はグローバルカウンターを保持する既知の行のID。
const globalCounterRowID = 0

// PostgresPublicTableRepo はPostgreSQLを使用したグローバルカウンターリポジトリ。
type PostgresPublicTableRepo struct {
	db *sql.DB
}

// NewPostgresPublicTableRepo はPostgresPublicTableRepoを生成する。
func NewPostgresPublicTableRepo(db *sql.DB) *PostgresPublicTableRepo {
	return &PostgresPublicTableRepo{db: db}
}

// FindGlobalCounter はid = 0のグローバルカウンター行を取得する。
// 行が存在しない場合はnilを返す。
func (r *PostgresPublicTableRepo) FindGlobalCounter(ctx context.Context) (*model.GlobalCounter, error) {
	counter := &model.GlobalCounter{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, global_counter FROM public_table WHERE id = $1`,
		globalCounterRowID,
	).Scan(&counter.ID, &counter.Value)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find global counter: %w", err)
	}

	return counter, nil
}

// IncrementGlobalCounter はグローバルカウンターをアトミックに+1し、更新後の値を返す。
// 行が存在しない場合はUPSERTで1から開始する。
func (r *PostgresPublicTableRepo) IncrementGlobalCounter(ctx context.Context) (int64, error) {
	var value int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO public_table (id, global_counter)
		 VALUES ($1, 1)
		 ON CONFLICT (id) DO UPDATE SET global_counter = public_table.global_counter + 1
		 RETURNING global_counter`,
		globalCounterRowID,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment global counter: %w", err)
	}

	return value, nil
}

// compile-time interface check
var _ PublicTableRepository = (*PostgresPublicTableRepo)(nil)
