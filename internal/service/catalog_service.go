package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/goldenticket/goldenticket/internal/api/dto"
	"github.com/goldenticket/goldenticket/internal/domain"
	"github.com/goldenticket/goldenticket/internal/persistence"
	"github.com/goldenticket/goldenticket/internal/realtime"
	"github.com/goldenticket/goldenticket/internal/repository"
)

const (
	cacheKeyTags = "catalog:tags"
	cacheKeyFAQs = "catalog:faqs"
	cacheTTL     = 10 * time.Minute
)

// CatalogService owns the tag and FAQ catalogs. The catalogs back the
// presence bootstrap payload and are read far more than written, so
// reads go through a redis cache-aside; every mutation invalidates and
// rebroadcasts the full catalog to all connections.
type CatalogService struct {
	tags       repository.TagRepository
	faqs       repository.FAQRepository
	cache      *persistence.Redis
	dispatcher *realtime.Dispatcher
	logger     *zap.Logger
}

// CatalogDependencies bundles collaborators for CatalogService.
type CatalogDependencies struct {
	TagRepo    repository.TagRepository
	FAQRepo    repository.FAQRepository
	Cache      *persistence.Redis
	Dispatcher *realtime.Dispatcher
	Logger     *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		tags:       deps.TagRepo,
		faqs:       deps.FAQRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateMainTag adds a top-level tag. A name collision yields
// DuplicateTagRejected to the caller only and leaves the catalog
// unchanged; success broadcasts the updated catalog to everyone.
func (s *CatalogService) CreateMainTag(ctx context.Context, name, callerConnID string) error {
	err := s.tags.CreateMain(ctx, name)
	return s.finishTagMutation(ctx, err, callerConnID)
}

// CreateSubTag adds a tag under an existing main tag.
func (s *CatalogService) CreateSubTag(ctx context.Context, name, mainTagName, callerConnID string) error {
	err := s.tags.CreateSub(ctx, name, mainTagName)
	return s.finishTagMutation(ctx, err, callerConnID)
}

func (s *CatalogService) finishTagMutation(ctx context.Context, err error, callerConnID string) error {
	if errors.Is(err, repository.ErrDuplicateName) {
		s.dispatcher.ToConnection(callerConnID, realtime.EventDuplicateTagRejected, nil)
		return nil
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx, cacheKeyTags)
	tags, err := s.Tags(ctx)
	if err != nil {
		return err
	}
	s.dispatcher.ToAll(realtime.EventTagCatalogUpdated, dto.TagCatalogPayload{
		Tags: dto.NewMainTagDTOs(tags),
	})
	return nil
}

// CreateFAQ adds an FAQ entry and broadcasts the refreshed list.
func (s *CatalogService) CreateFAQ(ctx context.Context, faq *domain.FAQ) error {
	if err := s.faqs.Create(ctx, faq); err != nil {
		return err
	}
	return s.broadcastFAQs(ctx)
}

// UpdateFAQ edits or archives an FAQ entry and broadcasts the
// refreshed list.
func (s *CatalogService) UpdateFAQ(ctx context.Context, faq *domain.FAQ) error {
	if err := s.faqs.Update(ctx, faq); err != nil {
		return err
	}
	return s.broadcastFAQs(ctx)
}

func (s *CatalogService) broadcastFAQs(ctx context.Context) error {
	s.invalidate(ctx, cacheKeyFAQs)
	faqs, err := s.FAQs(ctx)
	if err != nil {
		return err
	}
	s.dispatcher.ToAll(realtime.EventFAQCatalogUpdated, dto.FAQCatalogPayload{
		FAQs: dto.NewFAQDTOs(faqs),
	})
	return nil
}

// Tags returns the tag catalog, served from cache when fresh.
func (s *CatalogService) Tags(ctx context.Context) ([]domain.MainTag, error) {
	var cached []domain.MainTag
	if s.cacheGet(ctx, cacheKeyTags, &cached) {
		return cached, nil
	}
	tags, err := s.tags.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyTags, tags)
	return tags, nil
}

// FAQs returns the FAQ list, served from cache when fresh.
func (s *CatalogService) FAQs(ctx context.Context) ([]domain.FAQ, error) {
	var cached []domain.FAQ
	if s.cacheGet(ctx, cacheKeyFAQs, &cached) {
		return cached, nil
	}
	faqs, err := s.faqs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyFAQs, faqs)
	return faqs, nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil || s.cache.Client == nil {
		return false
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("catalog cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, key string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	if err := s.cache.Client.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
