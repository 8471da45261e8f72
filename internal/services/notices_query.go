package services

import (
	"context"
	"strings"

	"github.com/maxaizer/ipu-notifier/internal/entities"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type noticeFinder interface {
	Find(ctx context.Context, filter entities.NoticeFilter) ([]entities.Notice, error)
}

type Page struct {
	Notices    []entities.Notice
	Limit      int
	Offset     int
	HasMore    bool
	NextOffset int
}

type NoticesQuery struct {
	notices noticeFinder
}

func NewNoticesQuery(notices noticeFinder) *NoticesQuery {
	return &NoticesQuery{notices: notices}
}

func (q *NoticesQuery) ListByTags(ctx context.Context, tags []string, limit, offset int) (Page, error) {
	return q.Search(ctx, tags, "", limit, offset)
}

// Search returns a page of notices having all tags and, when text is not blank,
// containing text in the title or description.
func (q *NoticesQuery) Search(ctx context.Context, tags []string, text string, limit, offset int) (Page, error) {

	tags = entities.NormalizeTags(tags)
	if len(tags) == 0 {
		return Page{}, entities.NewValidationError("tags", "must be a non-empty array of strings")
	}

	limit, offset = normalizePagination(limit, offset)

	// one extra row tells whether another page exists
	notices, err := q.notices.Find(ctx, entities.NoticeFilter{
		Tags:   tags,
		Text:   strings.TrimSpace(text),
		Limit:  limit + 1,
		Offset: offset,
	})
	if err != nil {
		return Page{}, err
	}

	page := Page{Limit: limit, Offset: offset}
	if len(notices) > limit {
		page.HasMore = true
		notices = notices[:limit]
	}
	if notices == nil {
		notices = []entities.Notice{}
	}

	page.Notices = notices
	page.NextOffset = offset + len(notices)
	return page, nil
}

func normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
