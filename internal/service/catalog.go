package service

import (
	"context"

	"github.com/listenupapp/bookid-server/internal/domain"
	domainerrors "github.com/listenupapp/bookid-server/internal/errors"
	"github.com/listenupapp/bookid-server/internal/id"
	"github.com/listenupapp/bookid-server/internal/normalize"
	"github.com/listenupapp/bookid-server/internal/sse"
	"github.com/listenupapp/bookid-server/internal/store"
	"github.com/listenupapp/bookid-server/internal/validation"
)

// CreateBookRequest is the input of CreateBook.
type CreateBookRequest struct {
	ID          string `json:"id,omitempty" validate:"omitempty,bookid"`
	Title       string `json:"title" validate:"notblank,max=500"`
	Author      string `json:"author,omitempty" validate:"max=500"`
	Description string `json:"description,omitempty" validate:"max=20000"`
	PageCount   int    `json:"page_count,omitempty" validate:"gte=0"`
	PublishYear int    `json:"publish_year,omitempty" validate:"gte=0,lte=9999"`
	CoverURL    string `json:"cover_url,omitempty" validate:"omitempty,url"`
}

// UpdateBookRequest is a partial metadata update. Nil fields are unchanged.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=500"`
	Author      *string `json:"author,omitempty" validate:"omitempty,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=20000"`
	PageCount   *int    `json:"page_count,omitempty" validate:"omitempty,gte=0"`
	PublishYear *int    `json:"publish_year,omitempty" validate:"omitempty,gte=0,lte=9999"`
	CoverURL    *string `json:"cover_url,omitempty" validate:"omitempty,url"`
}

func (r UpdateBookRequest) toUpdate() domain.BookUpdate {
	u := domain.BookUpdate{
		PageCount:   r.PageCount,
		PublishYear: r.PublishYear,
		CoverURL:    r.CoverURL,
	}
	if r.Title != nil {
		t := normalize.Text(*r.Title)
		u.Title = &t
	}
	if r.Author != nil {
		a := normalize.Text(*r.Author)
		u.Author = &a
	}
	if r.Description != nil {
		d := normalize.Description(*r.Description)
		u.Description = &d
	}
	return u
}

// CatalogService manages canonical book records.
type CatalogService struct {
	Deps
	validator *validation.Validator
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(deps Deps, validator *validation.Validator) *CatalogService {
	return &CatalogService{Deps: deps.withDefaults(), validator: validator}
}

// CreateBook stores a new book. Descriptions pasted as HTML are kept as Markdown.
func (s *CatalogService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.OrGenerate(req.ID, id.PrefixBook)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
	}

	book := &domain.Book{
		Record:      domain.Record{ID: bookID},
		Title:       normalize.Text(req.Title),
		Author:      normalize.Text(req.Author),
		Description: normalize.Description(req.Description),
		PageCount:   req.PageCount,
		PublishYear: req.PublishYear,
		CoverURL:    req.CoverURL,
	}
	book.InitTimestamps()

	if err := s.Store.CreateBook(ctx, book); err != nil {
		return nil, storageErr(err, "create book")
	}

	if err := s.Index.IndexBook(ctx, book, nil); err != nil {
		s.Logger.Warn("index new book failed", "book_id", book.ID, "error", err)
	}
	s.Events.Emit(sse.NewBookCreatedEvent(book))
	s.Logger.Info("book created", "book_id", book.ID, "title", book.Title)

	return book, nil
}

// GetBook returns a book with its editions and group. A retired id resolves
// to its canonical book and the response records the redirect.
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*domain.BookForUser, error) {
	return loadBookView(ctx, s.Store, bookID, "")
}

// UpdateBook applies a partial update to an active book.
func (s *CatalogService) UpdateBook(ctx context.Context, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	update := req.toUpdate()
	if update.IsEmpty() {
		return nil, domainerrors.Validation("no fields to update")
	}

	book, err := s.Store.UpdateBook(ctx, bookID, update)
	if err != nil {
		return nil, storageErr(err, "update book")
	}

	s.reindex(ctx, book.ID)
	s.Events.Emit(sse.NewBookUpdatedEvent(book))
	return book, nil
}

// ListBooks pages through active books.
func (s *CatalogService) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	result, err := s.Store.ListBooks(ctx, params)
	if err != nil {
		return nil, storageErr(err, "list books")
	}
	return result, nil
}

// ListMerges returns the merges into or out of a book, oldest first.
func (s *CatalogService) ListMerges(ctx context.Context, bookID string) ([]*domain.MergeRecord, error) {
	if _, err := s.Store.GetBook(ctx, bookID); err != nil {
		return nil, storageErr(err, "get book")
	}
	merges, err := s.Store.ListMerges(ctx, bookID)
	if err != nil {
		return nil, storageErr(err, "list merges")
	}
	return merges, nil
}

// ReindexAll rebuilds every active book's search document.
func (s *CatalogService) ReindexAll(ctx context.Context) (int, error) {
	books, err := s.Store.ListActiveBooks(ctx)
	if err != nil {
		return 0, storageErr(err, "list books")
	}
	for _, b := range books {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		s.reindex(ctx, b.ID)
	}
	s.Logger.Info("search index rebuilt", "books", len(books))
	return len(books), nil
}
