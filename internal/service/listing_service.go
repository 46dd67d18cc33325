package service

import (
	"context"
	"strings"
	"time"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/repo"
	"github.com/MeganHarrison/alleato-core/internal/search"
)

type DocumentLister interface {
	ListPage(ctx context.Context, q repo.DocumentListQuery) (paginate.Page[model.Document], error)
	GetByID(ctx context.Context, id string) (*model.Document, error)
}

type InsightLister interface {
	ListPage(ctx context.Context, q repo.InsightListQuery) (paginate.Page[model.Insight], error)
}

// ListInput is a cursor-paginated listing request. Empty SortBy selects the
// listing's default ordering; a non-positive PageSize the configured default.
type ListInput struct {
	Filter   search.Filter
	Search   string
	SortBy   string
	SortDir  string
	Cursor   string
	PageSize int
}

type ListingService struct {
	docs            DocumentLister
	insights        InsightLister
	timeout         time.Duration
	defaultPageSize int
	maxPageSize     int
}

func NewListingService(docs DocumentLister, insights InsightLister, timeout time.Duration, defaultPageSize, maxPageSize int) *ListingService {
	return &ListingService{
		docs:            docs,
		insights:        insights,
		timeout:         timeout,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

func (s *ListingService) ListDocuments(ctx context.Context, in ListInput) (paginate.Page[model.Document], error) {
	opts, err := s.pageOptions(in, "date")
	if err != nil {
		return paginate.Page[model.Document]{}, err
	}
	if err := in.Filter.Validate(); err != nil {
		return paginate.Page[model.Document]{}, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	page, err := s.docs.ListPage(ctx, repo.DocumentListQuery{Filter: in.Filter, Search: in.Search, Page: opts})
	if err != nil {
		return paginate.Page[model.Document]{}, mapTimeout(ctx, err)
	}
	return page, nil
}

func (s *ListingService) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErr.Invalidf("document id is required")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}
	return doc, nil
}

func (s *ListingService) ListInsights(ctx context.Context, in ListInput) (paginate.Page[model.Insight], error) {
	opts, err := s.pageOptions(in, "created_at")
	if err != nil {
		return paginate.Page[model.Insight]{}, err
	}
	if err := in.Filter.Validate(); err != nil {
		return paginate.Page[model.Insight]{}, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	page, err := s.insights.ListPage(ctx, repo.InsightListQuery{Filter: in.Filter, Page: opts})
	if err != nil {
		return paginate.Page[model.Insight]{}, mapTimeout(ctx, err)
	}
	return page, nil
}

func (s *ListingService) pageOptions(in ListInput, defaultSort string) (paginate.Options, error) {
	sortBy := strings.ToLower(strings.TrimSpace(in.SortBy))
	if sortBy == "" {
		sortBy = defaultSort
	}
	dir, err := paginate.ParseDirection(in.SortDir)
	if err != nil {
		return paginate.Options{}, err
	}
	size := in.PageSize
	if size <= 0 {
		size = s.defaultPageSize
	}
	if s.maxPageSize > 0 && size > s.maxPageSize {
		return paginate.Options{}, appErr.Invalidf("page_size exceeds %d", s.maxPageSize)
	}
	cur, err := paginate.Decode(in.Cursor)
	if err != nil {
		return paginate.Options{}, err
	}
	return paginate.Options{SortBy: sortBy, Dir: dir, Cursor: cur, PageSize: size}, nil
}
