package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"car-classifieds/internal/core/slot"
	"car-classifieds/internal/domain"
	"car-classifieds/pkg/utils"
)

// ListingStore owns the authoritative listing sequence and its persisted form.
// The whole sequence is read once into memory and rewritten on every mutation.
type ListingStore struct {
	slot  slot.Slot
	log   *zap.Logger
	now   func() time.Time
	newID func() string

	sf     singleflight.Group
	loaded atomic.Bool

	mu    sync.RWMutex
	items []domain.Listing // 插入顺序
}

type StoreOption func(*ListingStore)

func WithClock(now func() time.Time) StoreOption { return func(s *ListingStore) { s.now = now } }

func WithIDGen(gen func() string) StoreOption { return func(s *ListingStore) { s.newID = gen } }

func NewListingStore(sl slot.Slot, l *zap.Logger, opts ...StoreOption) *ListingStore {
	s := &ListingStore{slot: sl, log: l, now: time.Now, newID: utils.NewID}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads the slot into memory. Calling it again is a no-op; operations
// issued before Load perform the same one-time load.
func (s *ListingStore) Load(ctx context.Context) error {
	if s.loaded.Load() {
		return nil
	}
	// 并发的首次访问合并为一次读取
	_, err, _ := s.sf.Do("load", func() (any, error) {
		if s.loaded.Load() {
			return nil, nil
		}
		b, err := s.slot.Load(ctx)
		if err != nil {
			return nil, err
		}
		var items []domain.Listing
		if len(b) > 0 {
			if err := json.Unmarshal(b, &items); err != nil {
				return nil, fmt.Errorf("%w: decode slot: %w", domain.ErrPersistence, err)
			}
		}
		s.mu.Lock()
		s.items = items
		s.mu.Unlock()
		s.loaded.Store(true)
		s.log.Info("listing store loaded", zap.Int("count", len(items)))
		return nil, nil
	})
	return err
}

// persist 把整个序列写回槽位；调用方持有写锁
func (s *ListingStore) persist(ctx context.Context, items []domain.Listing) error {
	if items == nil {
		items = []domain.Listing{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode slot: %w", domain.ErrPersistence, err)
	}
	return s.slot.Save(ctx, b)
}

func sortedCopy(items []domain.Listing, order domain.Order) []domain.Listing {
	out := make([]domain.Listing, 0, len(items))
	if order == domain.OrderCreatedDesc {
		// 逆序复制后稳定排序：created_at 相同时后插入的在前
		for i := len(items) - 1; i >= 0; i-- {
			out = append(out, items[i].Clone())
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return out
	}
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}

func (s *ListingStore) List(ctx context.Context, order domain.Order) ([]domain.Listing, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopy(s.items, order), nil
}

func (s *ListingStore) Create(ctx context.Context, f domain.ListingFields) (*domain.Listing, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	l := domain.Listing{
		ID:           s.newID(),
		CreatedAt:    s.now().UTC(),
		Make:         f.Make,
		Model:        f.Model,
		Year:         f.Year,
		Price:        f.Price,
		Mileage:      f.Mileage,
		Color:        f.Color,
		FuelType:     f.FuelType,
		Transmission: f.Transmission,
		Description:  f.Description,
		Photos:       append([]string{}, f.Photos...),
		Featured:     f.Featured,
		Owner:        f.Owner,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append(make([]domain.Listing, 0, len(s.items)+1), s.items...), l)
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.items = next
	s.log.Debug("listing created", zap.String("id", l.ID))
	out := l.Clone()
	return &out, nil
}

// Get returns nil, nil when no listing has id.
func (s *ListingStore) Get(ctx context.Context, id string) (*domain.Listing, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			out := it.Clone()
			return &out, nil
		}
	}
	return nil, nil
}

func (s *ListingStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ListingStore) Update(ctx context.Context, id string, p domain.ListingPatch) (*domain.Listing, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	merged := p.Apply(s.items[i])

	next := append([]domain.Listing(nil), s.items...)
	next[i] = merged
	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.items = next
	s.log.Debug("listing updated", zap.String("id", id))
	out := merged.Clone()
	return &out, nil
}

// Delete reports whether a listing was removed. An unknown id is not an error
// and leaves the slot untouched.
func (s *ListingStore) Delete(ctx context.Context, id string) (bool, error) {
	if err := s.Load(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	next := make([]domain.Listing, 0, len(s.items)-1)
	next = append(next, s.items[:i]...)
	next = append(next, s.items[i+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.items = next
	s.log.Debug("listing deleted", zap.String("id", id))
	return true, nil
}

func (s *ListingStore) Filter(ctx context.Context, m domain.Match, order domain.Order) ([]domain.Listing, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Listing, 0)
	for _, it := range s.items {
		if m.Matches(it) {
			matched = append(matched, it)
		}
	}
	return sortedCopy(matched, order), nil
}

var _ domain.ListingRepository = (*ListingStore)(nil)
