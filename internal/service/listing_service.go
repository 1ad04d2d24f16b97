package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"car-classifieds/internal/domain"
	"car-classifieds/internal/events"
	"car-classifieds/internal/search"
)

type ListingService struct {
	store  domain.ListingRepository
	events events.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewListingService(store domain.ListingRepository, pub events.Publisher, l *zap.Logger) *ListingService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &ListingService{store: store, events: pub, log: l, now: time.Now}
}

// deletedEvent 删除事件只带 id
type deletedEvent struct {
	ID string `json:"id"`
}

// listingEvent 创建/更新事件的摘要，订阅方需要完整数据时再按 id 查询
type listingEvent struct {
	ID       string  `json:"id"`
	Make     string  `json:"make"`
	Model    string  `json:"model"`
	Year     int     `json:"year"`
	Price    float64 `json:"price"`
	Featured bool    `json:"featured"`
	Photo    string  `json:"photo,omitempty"`
	Owner    string  `json:"owner,omitempty"`
}

func summarize(l *domain.Listing) listingEvent {
	return listingEvent{
		ID:       l.ID,
		Make:     l.Make,
		Model:    l.Model,
		Year:     l.Year,
		Price:    l.Price,
		Featured: l.Featured,
		Photo:    l.PrimaryPhoto(),
		Owner:    l.Owner,
	}
}

func (s *ListingService) publish(ctx context.Context, event string, payload any) {
	if err := s.events.Publish(ctx, event, payload); err != nil {
		s.log.Warn("publish listing event failed", zap.String("event", event), zap.Error(err))
	}
}

// Browse returns the newest-first catalog narrowed by q.
func (s *ListingService) Browse(ctx context.Context, q search.Query) ([]domain.Listing, error) {
	all, err := s.store.List(ctx, domain.OrderCreatedDesc)
	if err != nil {
		return nil, err
	}
	return search.Apply(all, q), nil
}

// Featured is Browse narrowed to the featured listings, shown above the full
// result in the catalog.
func (s *ListingService) Featured(ctx context.Context, q search.Query) ([]domain.Listing, error) {
	all, err := s.Browse(ctx, q)
	if err != nil {
		return nil, err
	}
	return search.Featured(all), nil
}

func (s *ListingService) Brands(ctx context.Context) ([]string, error) {
	all, err := s.store.List(ctx, domain.OrderInsertion)
	if err != nil {
		return nil, err
	}
	return search.Brands(all), nil
}

// Mine lists the caller's own listings, newest first.
func (s *ListingService) Mine(ctx context.Context, owner string) ([]domain.Listing, error) {
	return s.store.Filter(ctx, domain.Match{Owner: &owner}, domain.OrderCreatedDesc)
}

func (s *ListingService) Create(ctx context.Context, f domain.ListingFields) (*domain.Listing, error) {
	if err := f.Validate(s.now()); err != nil {
		return nil, err
	}
	l, err := s.store.Create(ctx, f)
	if err != nil {
		s.log.Error("create listing failed", zap.String("make", f.Make), zap.String("model", f.Model), zap.Error(err))
		return nil, err
	}
	s.log.Info("listing created", zap.String("id", l.ID), zap.String("owner", l.Owner))
	s.publish(ctx, events.Created, summarize(l))
	return l, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.store.Get(ctx, id)
}

func (s *ListingService) Update(ctx context.Context, id string, p domain.ListingPatch) (*domain.Listing, error) {
	if err := p.Validate(s.now()); err != nil {
		return nil, err
	}
	l, err := s.store.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.log.Info("listing updated", zap.String("id", id))
	s.publish(ctx, events.Updated, summarize(l))
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.log.Info("listing deleted", zap.String("id", id))
	s.publish(ctx, events.Deleted, deletedEvent{ID: id})
	return true, nil
}
