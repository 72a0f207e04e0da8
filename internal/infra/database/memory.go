package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"office_cheer_bot/internal/domain/delivery"
	"office_cheer_bot/internal/domain/staff"
)

// In-memory implementations of the staff repository and the delivery ledger,
// used by tests and by dry-run invocations that must not touch a real store.

// MemoryStaffRepository is a mutex-guarded in-memory staff.Repository.
type MemoryStaffRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]staff.Record
}

func NewMemoryStaffRepository() *MemoryStaffRepository {
	return &MemoryStaffRepository{nextID: 1, byID: make(map[int64]staff.Record)}
}

func (r *MemoryStaffRepository) Create(_ context.Context, rec *staff.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == rec.Email {
			return ErrDuplicateEmail
		}
	}

	rec.ID = r.nextID
	r.nextID++
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	r.byID[rec.ID] = *rec
	return nil
}

func (r *MemoryStaffRepository) GetByID(_ context.Context, id int64) (*staff.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, ErrStaffNotFound
	}
	return &rec, nil
}

func (r *MemoryStaffRepository) GetByEmail(_ context.Context, email string) (*staff.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.byID {
		if rec.Email == email {
			out := rec
			return &out, nil
		}
	}
	return nil, ErrStaffNotFound
}

func (r *MemoryStaffRepository) Update(_ context.Context, rec *staff.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; !ok {
		return ErrStaffNotFound
	}
	rec.UpdatedAt = time.Now()
	r.byID[rec.ID] = *rec
	return nil
}

func (r *MemoryStaffRepository) ListActive(ctx context.Context) ([]*staff.Record, error) {
	return r.list(func(rec staff.Record) bool { return rec.IsActive })
}

func (r *MemoryStaffRepository) ListAll(ctx context.Context) ([]*staff.Record, error) {
	return r.list(func(staff.Record) bool { return true })
}

func (r *MemoryStaffRepository) list(keep func(staff.Record) bool) ([]*staff.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*staff.Record, 0, len(r.byID))
	for _, rec := range r.byID {
		if keep(rec) {
			out := rec
			records = append(records, &out)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// MemoryDeliveryLedger is a mutex-guarded in-memory delivery.Ledger. All
// reads and writes take the same lock, so per-key operations are trivially
// linearizable.
type MemoryDeliveryLedger struct {
	mu     sync.Mutex
	nextID int64
	byKey  map[delivery.Key]delivery.Record
}

func NewMemoryDeliveryLedger() *MemoryDeliveryLedger {
	return &MemoryDeliveryLedger{nextID: 1, byKey: make(map[delivery.Key]delivery.Record)}
}

func (l *MemoryDeliveryLedger) Get(_ context.Context, key delivery.Key) (*delivery.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byKey[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (l *MemoryDeliveryLedger) IsDelivered(_ context.Context, key delivery.Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byKey[key]
	return ok && rec.Status == delivery.StatusDelivered, nil
}

func (l *MemoryDeliveryLedger) RecordAttempt(_ context.Context, key delivery.Key, outcome delivery.Status, retryIncrement int) (*delivery.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	rec, ok := l.byKey[key]
	if !ok {
		rec = delivery.Record{
			ID:         l.nextID,
			Key:        key,
			Status:     outcome,
			RetryCount: retryIncrement,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		l.nextID++
		l.byKey[key] = rec
		return &rec, nil
	}

	if rec.Status == delivery.StatusDelivered {
		// One-way transition: a Delivered record is immutable.
		return &rec, nil
	}

	rec.Status = outcome
	rec.RetryCount += retryIncrement
	rec.UpdatedAt = now
	l.byKey[key] = rec
	return &rec, nil
}

func (l *MemoryDeliveryLedger) ShouldRetry(_ context.Context, key delivery.Key, maxAttempts int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.byKey[key]
	if !ok {
		return true, nil
	}
	if rec.Status == delivery.StatusDelivered {
		return false, nil
	}
	return rec.RetryCount < maxAttempts, nil
}
