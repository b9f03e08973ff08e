package catalog

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/glowmart/backend-store/internal/common"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type productStore interface {
	List(ctx context.Context, category string, limit, offset int) ([]Product, error)
	Count(ctx context.Context, category string) (int64, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, input ProductInput) (Product, error)
	Update(ctx context.Context, id string, input ProductInput) (Product, error)
	Delete(ctx context.Context, id string) error
}

// Service orchestrates catalog reads, writes, and cache maintenance.
type Service struct {
	store        productStore
	cache        *Cache
	defaultLimit int
	maxLimit     int
	logger       zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        productStore
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
	Logger       zerolog.Logger
}

// ListParams captures pagination and category filtering.
type ListParams struct {
	Category string
	Page     int
	Limit    int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Product
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       cfg.Logger,
	}
}

// ParseListParams normalises raw query values.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Category = strings.TrimSpace(values.Get("category"))
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.ValidationError("page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, common.ValidationError("limit must be a positive integer", err)
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// List returns a page of products, serving the unfiltered first page from cache.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	cacheable := params.Category == "" && params.Page == 1 && params.Limit == s.defaultLimit
	if cacheable {
		var cached ListResult
		if ok, err := s.cache.GetJSON(ctx, listCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	total, err := s.store.Count(ctx, params.Category)
	if err != nil {
		return ListResult{}, err
	}
	offset := (params.Page - 1) * params.Limit
	items, err := s.store.List(ctx, params.Category, params.Limit, offset)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if cacheable {
		if err := s.cache.SetJSON(ctx, listCacheKey, result); err != nil {
			s.logger.Warn().Err(err).Msg("catalog_cache_set_failed")
		}
	}
	return result, nil
}

// Get returns a single product, reading through the detail cache.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	key := detailCachePrefix + id
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	product, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.SetJSON(ctx, key, product); err != nil {
		s.logger.Warn().Err(err).Msg("catalog_cache_set_failed")
	}
	return product, nil
}

// Create validates input, inserts the product, and invalidates cached lists.
func (s *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	if err := validateInput(input); err != nil {
		return Product{}, err
	}
	product, err := s.store.Create(ctx, input)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, product.ID)
	return product, nil
}

// Update validates input, replaces the product, and invalidates its cache entries.
func (s *Service) Update(ctx context.Context, id string, input ProductInput) (Product, error) {
	if err := validateInput(input); err != nil {
		return Product{}, err
	}
	product, err := s.store.Update(ctx, id, input)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, id)
	return product, nil
}

// Delete removes the product and invalidates its cache entries.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id).Msg("catalog_cache_invalidate_failed")
	}
}

func validateInput(input ProductInput) error {
	if err := validate.Struct(input); err != nil {
		appErr := common.ValidationError("name, price, and imageUrl are required", err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			appErr.Details = map[string]any{"fields": fields}
		}
		return appErr
	}
	return nil
}
