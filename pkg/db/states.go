package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrNotFound = errors.New("device state not found")

// DeviceRecord is the stored state of a virtual device.
type DeviceRecord struct {
	OnOff     OnOffState     `json:"OnOff"`
	StartStop StartStopState `json:"StartStop"`
	UpdatedAt time.Time      `json:"-"`
}

// OnOffState is the OnOff trait section of a record.
type OnOffState struct {
	On bool `json:"on"`
}

// StartStopState is the StartStop trait section of a record.
type StartStopState struct {
	IsRunning bool `json:"isRunning"`
	IsPaused  bool `json:"isPaused"`
}

// Flatten returns the record as a platform state fragment.
func (r DeviceRecord) Flatten() map[string]any {
	return map[string]any{
		"on":        r.OnOff.On,
		"isRunning": r.StartStop.IsRunning,
		"isPaused":  r.StartStop.IsPaused,
	}
}

// ChangeListener is invoked after a write to a device record commits.
type ChangeListener func(ctx context.Context, deviceID string, rec DeviceRecord)

// StateStore provides device state reads and writes.
type StateStore interface {
	Get(ctx context.Context, deviceID string) (*DeviceRecord, error)
	List(ctx context.Context) (map[string]DeviceRecord, error)
	Put(ctx context.Context, deviceID string, rec DeviceRecord) error
	// Update applies fn to the current record (zero if absent) and stores
	// the result atomically.
	Update(ctx context.Context, deviceID string, fn func(*DeviceRecord)) (*DeviceRecord, error)
	OnChange(l ChangeListener)
}

// States returns the StateStore for this database.
func (db *DB) States() StateStore {
	return db.states
}

type stateStore struct {
	db *DB

	mu        sync.RWMutex
	listeners []ChangeListener
}

func (s *stateStore) Get(ctx context.Context, deviceID string) (*DeviceRecord, error) {
	return getRecord(ctx, s.db, deviceID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRecord(ctx context.Context, q queryRower, deviceID string) (*DeviceRecord, error) {
	r := &DeviceRecord{}
	var updatedAt string
	err := q.QueryRowContext(ctx, `
		SELECT on_off, is_running, is_paused, updated_at
		FROM device_states WHERE device_id = ?
	`, deviceID).Scan(&r.OnOff.On, &r.StartStop.IsRunning, &r.StartStop.IsPaused, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", deviceID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return r, nil
}

func (s *stateStore) List(ctx context.Context) (map[string]DeviceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT device_id, on_off, is_running, is_paused, updated_at
		FROM device_states ORDER BY device_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make(map[string]DeviceRecord)
	for rows.Next() {
		var (
			id        string
			r         DeviceRecord
			updatedAt string
		)
		if err := rows.Scan(&id, &r.OnOff.On, &r.StartStop.IsRunning, &r.StartStop.IsPaused, &updatedAt); err != nil {
			return nil, err
		}
		r.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		records[id] = r
	}
	return records, rows.Err()
}

func (s *stateStore) Put(ctx context.Context, deviceID string, rec DeviceRecord) error {
	_, err := s.Update(ctx, deviceID, func(r *DeviceRecord) { *r = rec })
	return err
}

func (s *stateStore) Update(ctx context.Context, deviceID string, fn func(*DeviceRecord)) (*DeviceRecord, error) {
	var stored DeviceRecord
	err := s.db.Tx(ctx, func(tx *sql.Tx) error {
		current, err := getRecord(ctx, tx, deviceID)
		if errors.Is(err, ErrNotFound) {
			current = &DeviceRecord{}
		} else if err != nil {
			return err
		}

		fn(current)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO device_states (device_id, on_off, is_running, is_paused)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(device_id) DO UPDATE SET
				on_off = excluded.on_off,
				is_running = excluded.is_running,
				is_paused = excluded.is_paused,
				updated_at = datetime('now')
		`, deviceID, current.OnOff.On, current.StartStop.IsRunning, current.StartStop.IsPaused)
		if err != nil {
			return fmt.Errorf("failed to store state of %s: %w", deviceID, err)
		}
		stored = *current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, deviceID, stored)
	return &stored, nil
}

func (s *stateStore) OnChange(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *stateStore) notify(ctx context.Context, deviceID string, rec DeviceRecord) {
	s.mu.RLock()
	listeners := make([]ChangeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, deviceID, rec)
	}
}
