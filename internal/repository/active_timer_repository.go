package repository

import (
	"context"
	"database/sql"
	"fmt"

	"focusroom/backend/internal/model"
)

// SQLiteActiveTimerStore is the ActiveTimerStore backed by the active_timers table.
type SQLiteActiveTimerStore struct {
	db *sql.DB
}

func NewSQLiteActiveTimerStore(db *sql.DB) *SQLiteActiveTimerStore {
	return &SQLiteActiveTimerStore{db: db}
}

func (r *SQLiteActiveTimerStore) Get(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error) {
	row := r.db.QueryRowContext(ctx, selectActiveTimerSQL, userID)
	snapshot, err := scanActiveTimer(row)
	if err == ErrNotFound {
		return model.ActiveTimerSnapshot{}, nil
	}
	return snapshot, err
}

func (r *SQLiteActiveTimerStore) Put(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO active_timers (
			user_id, present, mode, end_time, start_time, is_active, is_focus_started,
			selected_subject, session_id, baseline_seconds, device_id, updated_at, version
		) VALUES (?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			present = 1,
			mode = excluded.mode,
			end_time = excluded.end_time,
			start_time = excluded.start_time,
			is_active = excluded.is_active,
			is_focus_started = excluded.is_focus_started,
			selected_subject = excluded.selected_subject,
			session_id = excluded.session_id,
			baseline_seconds = excluded.baseline_seconds,
			device_id = excluded.device_id,
			updated_at = excluded.updated_at,
			version = active_timers.version + 1`,
		record.UserID,
		record.Mode,
		record.EndTime,
		record.StartTime,
		record.IsActive,
		record.IsFocusStarted,
		record.SelectedSubject,
		record.SessionID,
		record.BaselineSeconds,
		record.DeviceID,
		record.UpdatedAt,
	)
	if err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("put active timer: %w", err)
	}

	snapshot, err := scanActiveTimer(tx.QueryRowContext(ctx, selectActiveTimerSQL, record.UserID))
	if err != nil {
		return model.ActiveTimerSnapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("commit active timer: %w", err)
	}
	return snapshot, nil
}

func (r *SQLiteActiveTimerStore) Delete(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO active_timers (user_id, present, version) VALUES (?, 0, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			present = 0,
			mode = '',
			end_time = 0,
			start_time = 0,
			is_active = 0,
			is_focus_started = 0,
			selected_subject = '',
			session_id = '',
			baseline_seconds = 0,
			device_id = '',
			updated_at = 0,
			version = active_timers.version + 1`,
		userID,
	)
	if err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("delete active timer: %w", err)
	}

	snapshot, err := scanActiveTimer(tx.QueryRowContext(ctx, selectActiveTimerSQL, userID))
	if err != nil {
		return model.ActiveTimerSnapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.ActiveTimerSnapshot{}, fmt.Errorf("commit active timer: %w", err)
	}
	return snapshot, nil
}

const selectActiveTimerSQL = `SELECT user_id, present, mode, end_time, start_time, is_active,
		is_focus_started, selected_subject, session_id, baseline_seconds,
		device_id, updated_at, version
	 FROM active_timers WHERE user_id = ?`

func scanActiveTimer(s scanner) (model.ActiveTimerSnapshot, error) {
	var record model.ActiveTimerRecord
	var present bool
	err := s.Scan(
		&record.UserID,
		&present,
		&record.Mode,
		&record.EndTime,
		&record.StartTime,
		&record.IsActive,
		&record.IsFocusStarted,
		&record.SelectedSubject,
		&record.SessionID,
		&record.BaselineSeconds,
		&record.DeviceID,
		&record.UpdatedAt,
		&record.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.ActiveTimerSnapshot{}, ErrNotFound
		}
		return model.ActiveTimerSnapshot{}, fmt.Errorf("scan active timer: %w", err)
	}

	snapshot := model.ActiveTimerSnapshot{Version: record.Version}
	if present {
		snapshot.Record = &record
	}
	return snapshot, nil
}
