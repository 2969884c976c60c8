package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"tripmate/internal/infra"
	dbm "tripmate/internal/models/db_models"
	"tripmate/pkg/utils"
)

type DestinationCount struct {
	Destination string
	Count       int64
}

type TripRepository interface {
	Create(ctx context.Context, trip *dbm.Trip) error
	Update(ctx context.Context, trip *dbm.Trip) error
	GetByID(ctx context.Context, id string) (*dbm.Trip, error)
	GetBySessionID(ctx context.Context, sessionID string) (*dbm.Trip, error)
	GetByShareToken(ctx context.Context, token string) (*dbm.Trip, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]dbm.Trip, error)
	MarkPaid(ctx context.Context, id, ref string, paidAt int64) error
	Count(ctx context.Context) (total int64, paid int64, err error)
	TopDestinations(ctx context.Context, limit int) ([]DestinationCount, error)
}

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) Create(ctx context.Context, trip *dbm.Trip) error {
	if err := r.db.WithContext(ctx).Create(trip).Error; err != nil {
		return errors.Join(utils.ErrDatabaseError, err)
	}
	return nil
}

func (r *tripRepository) Update(ctx context.Context, trip *dbm.Trip) error {
	if err := r.db.WithContext(ctx).Save(trip).Error; err != nil {
		return errors.Join(utils.ErrDatabaseError, err)
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id string) (*dbm.Trip, error) {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return nil, utils.ErrTripNotFound
	}
	return r.first(ctx, "id = ?", tripID)
}

func (r *tripRepository) GetBySessionID(ctx context.Context, sessionID string) (*dbm.Trip, error) {
	return r.first(ctx, "session_id = ?", sessionID)
}

func (r *tripRepository) GetByShareToken(ctx context.Context, token string) (*dbm.Trip, error) {
	return r.first(ctx, "share_token = ?", token)
}

func (r *tripRepository) first(ctx context.Context, query string, args ...any) (*dbm.Trip, error) {
	var trip dbm.Trip
	err := r.db.WithContext(ctx).Where(query, args...).First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrTripNotFound
	}
	if err != nil {
		return nil, errors.Join(utils.ErrDatabaseError, err)
	}
	return &trip, nil
}

func (r *tripRepository) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]dbm.Trip, error) {
	var trips []dbm.Trip
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&trips).Error
	if err != nil {
		return nil, errors.Join(utils.ErrDatabaseError, err)
	}
	return trips, nil
}

func (r *tripRepository) MarkPaid(ctx context.Context, id, ref string, paidAt int64) (err error) {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return utils.ErrTripNotFound
	}

	tx := infra.StartTransaction(r.db.WithContext(ctx))
	if tx.Error != nil {
		return errors.Join(utils.ErrDatabaseError, tx.Error)
	}
	defer func() { err = infra.ReleaseTransaction(tx, err) }()

	res := tx.Model(&dbm.Trip{}).
		Where("id = ? AND paid_at IS NULL", tripID).
		Updates(map[string]interface{}{"paid_at": paidAt, "payment_ref": ref})
	if res.Error != nil {
		return errors.Join(utils.ErrDatabaseError, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Either unknown or already paid; only the former is an error.
	var exists int64
	if err := tx.Model(&dbm.Trip{}).Where("id = ?", tripID).Count(&exists).Error; err != nil {
		return errors.Join(utils.ErrDatabaseError, err)
	}
	if exists == 0 {
		return utils.ErrTripNotFound
	}
	return nil
}

func (r *tripRepository) Count(ctx context.Context) (int64, int64, error) {
	var total, paid int64
	if err := r.db.WithContext(ctx).Model(&dbm.Trip{}).Count(&total).Error; err != nil {
		return 0, 0, errors.Join(utils.ErrDatabaseError, err)
	}
	if err := r.db.WithContext(ctx).Model(&dbm.Trip{}).Where("paid_at IS NOT NULL").Count(&paid).Error; err != nil {
		return 0, 0, errors.Join(utils.ErrDatabaseError, err)
	}
	return total, paid, nil
}

func (r *tripRepository) TopDestinations(ctx context.Context, limit int) ([]DestinationCount, error) {
	var rows []DestinationCount
	err := r.db.WithContext(ctx).
		Model(&dbm.Trip{}).
		Select("destination, count(*) as count").
		Group("destination").
		Order("count DESC, destination").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Join(utils.ErrDatabaseError, err)
	}
	return rows, nil
}

// memoryTripRepository backs trips when no database is configured.
type memoryTripRepository struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]dbm.Trip
}

func NewMemoryTripRepository() TripRepository {
	return &memoryTripRepository{trips: make(map[uuid.UUID]dbm.Trip)}
}

func (r *memoryTripRepository) Create(_ context.Context, trip *dbm.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip.Touch()
	if trip.ShareToken != nil {
		if _, taken := r.byToken(*trip.ShareToken); taken {
			return errors.Join(utils.ErrDatabaseError, errors.New("duplicate share token"))
		}
	}
	r.trips[trip.ID] = *trip
	return nil
}

func (r *memoryTripRepository) Update(_ context.Context, trip *dbm.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[trip.ID]; !ok {
		return utils.ErrTripNotFound
	}
	if trip.ShareToken != nil {
		if other, taken := r.byToken(*trip.ShareToken); taken && other.ID != trip.ID {
			return errors.Join(utils.ErrDatabaseError, errors.New("duplicate share token"))
		}
	}
	trip.Touch()
	r.trips[trip.ID] = *trip
	return nil
}

func (r *memoryTripRepository) GetByID(_ context.Context, id string) (*dbm.Trip, error) {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return nil, utils.ErrTripNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	trip, ok := r.trips[tripID]
	if !ok {
		return nil, utils.ErrTripNotFound
	}
	return &trip, nil
}

func (r *memoryTripRepository) GetBySessionID(_ context.Context, sessionID string) (*dbm.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trip, ok := lo.Find(lo.Values(r.trips), func(t dbm.Trip) bool { return t.SessionID == sessionID })
	if !ok {
		return nil, utils.ErrTripNotFound
	}
	return &trip, nil
}

func (r *memoryTripRepository) GetByShareToken(_ context.Context, token string) (*dbm.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trip, ok := r.byToken(token)
	if !ok {
		return nil, utils.ErrTripNotFound
	}
	return &trip, nil
}

func (r *memoryTripRepository) byToken(token string) (dbm.Trip, bool) {
	return lo.Find(lo.Values(r.trips), func(t dbm.Trip) bool {
		return t.ShareToken != nil && *t.ShareToken == token
	})
}

func (r *memoryTripRepository) ListByUser(_ context.Context, userID string, page, pageSize int) ([]dbm.Trip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned := lo.Filter(lo.Values(r.trips), func(t dbm.Trip, _ int) bool { return t.UserID == userID })
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt != owned[j].CreatedAt {
			return owned[i].CreatedAt > owned[j].CreatedAt
		}
		return owned[i].ID.String() < owned[j].ID.String()
	})
	start := (page - 1) * pageSize
	if start >= len(owned) {
		return []dbm.Trip{}, nil
	}
	return owned[start:min(start+pageSize, len(owned))], nil
}

func (r *memoryTripRepository) MarkPaid(_ context.Context, id, ref string, paidAt int64) error {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return utils.ErrTripNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[tripID]
	if !ok {
		return utils.ErrTripNotFound
	}
	if trip.PaidAt != nil {
		return nil
	}
	trip.PaidAt = &paidAt
	trip.PaymentRef = ref
	r.trips[tripID] = trip
	return nil
}

func (r *memoryTripRepository) Count(_ context.Context) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paid := lo.CountBy(lo.Values(r.trips), func(t dbm.Trip) bool { return t.PaidAt != nil })
	return int64(len(r.trips)), int64(paid), nil
}

func (r *memoryTripRepository) TopDestinations(_ context.Context, limit int) ([]DestinationCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := lo.CountValuesBy(lo.Values(r.trips), func(t dbm.Trip) string { return t.Destination })
	rows := lo.MapToSlice(counts, func(dest string, n int) DestinationCount {
		return DestinationCount{Destination: dest, Count: int64(n)}
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return strings.Compare(rows[i].Destination, rows[j].Destination) < 0
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
