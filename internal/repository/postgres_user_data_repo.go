package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/countboard/internal/model"
)

// PostgresUserDataRepo はPostgreSQLを使用したユーザーレコードリポジトリ。
type PostgresUserDataRepo struct {
	db *sql.DB
}

// NewPostgresUserDataRepo はPostgresUserDataRepoを生成する。
func NewPostgresUserDataRepo(db *sql.DB) *PostgresUserDataRepo {
	return &PostgresUserDataRepo{db: db}
}

// FindByID は指定IDのレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresUserDataRepo) FindByID(ctx context.Context, id int64) (*model.UserData, error) {
	data := &model.UserData{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, counter, created_at, updated_at
		 FROM user_data WHERE id = $1`,
		id,
	).Scan(&data.ID, &data.UserID, &data.Email, &data.Counter, &data.CreatedAt, &data.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user data by ID: %w", err)
	}

	return data, nil
}

// FindByUserID は指定ユーザーIDのレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresUserDataRepo) FindByUserID(ctx context.Context, userID string) (*model.UserData, error) {
	data := &model.UserData{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, email, counter, created_at, updated_at
		 FROM user_data WHERE user_id = $1`,
		userID,
	).Scan(&data.ID, &data.UserID, &data.Email, &data.Counter, &data.CreatedAt, &data.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user data by user ID: %w", err)
	}

	return data, nil
}

// InsertIfAbsent はレコードが存在しない場合のみ作成する。
// user_idのUNIQUE制約に基づくON CONFLICT DO NOTHINGのため、
// 同時初回ログインが重なっても1ユーザーにつき高々1行しか作成されない。
func (r *PostgresUserDataRepo) InsertIfAbsent(ctx context.Context, userID, email string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO user_data (user_id, email, counter)
		 VALUES ($1, $2, 0)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, email,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert user data: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListAll は全レコードをid昇順で返す。
func (r *PostgresUserDataRepo) ListAll(ctx context.Context) ([]*model.UserData, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, email, counter, created_at, updated_at
		 FROM user_data ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user data: %w", err)
	}
	defer rows.Close()

	var list []*model.UserData
	for rows.Next() {
		data := &model.UserData{}
		if err := rows.Scan(&data.ID, &data.UserID, &data.Email, &data.Counter, &data.CreatedAt, &data.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user data: %w", err)
		}
		list = append(list, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user data: %w", err)
	}

	return list, nil
}

// IncrementCounter は指定ユーザーのカウンターをアトミックに+1し、
// 更新後のレコードを返す。レコードが存在しない場合はnilを返す。
func (r *PostgresUserDataRepo) IncrementCounter(ctx context.Context, userID string) (*model.UserData, error) {
	data := &model.UserData{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE user_data
		 SET counter = counter + 1, updated_at = now()
		 WHERE user_id = $1
		 RETURNING id, user_id, email, counter, created_at, updated_at`,
		userID,
	).Scan(&data.ID, &data.UserID, &data.Email, &data.Counter, &data.CreatedAt, &data.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter: %w", err)
	}

	return data, nil
}

// compile-time interface check
var _ UserDataRepository = (*PostgresUserDataRepo)(nil)
