package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
)

const settingsTable = "ConsoleSettings"

// MySQLSettingsRepository stores console settings as key/value rows.
type MySQLSettingsRepository struct {
	db *sql.DB
}

func NewMySQLSettingsRepository(db *sql.DB) *MySQLSettingsRepository {
	return &MySQLSettingsRepository{db: db}
}

func (r *MySQLSettingsRepository) FindAll(ctx context.Context) (map[string]string, error) {
	query, args, err := sq.Select("settingKey", "settingValue").
		From(settingsTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building settings query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}

	return values, nil
}

// Upsert writes every key in one statement. Keys are sorted so the generated
// SQL is stable.
func (r *MySQLSettingsRepository) Upsert(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	qb := sq.Insert(settingsTable).Columns("settingKey", "settingValue")
	for _, k := range keys {
		qb = qb.Values(k, values[k])
	}
	query, args, err := qb.
		Suffix("ON DUPLICATE KEY UPDATE settingValue = VALUES(settingValue), updatedAt = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return fmt.Errorf("building settings upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting settings: %w", err)
	}
	return nil
}
