package repositories

import (
	"context"
	"strings"

	"github.com/maxaizer/ipu-notifier/internal/entities"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type Notices struct {
	db *gorm.DB
}

func NewNoticesRepository(db *gorm.DB) *Notices {
	return &Notices{db: db}
}

func (repo *Notices) Exists(ctx context.Context, title, viewLink string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entities.Notice{}).
		Where("title = ? AND view_link = ?", title, viewLink).
		Count(&count).Error
	if err != nil {
		return false, &entities.StorageError{Op: "exists", Err: err}
	}
	return count > 0, nil
}

func (repo *Notices) Add(ctx context.Context, notice *entities.Notice) error {
	if err := repo.db.WithContext(ctx).Create(notice).Error; err != nil {
		return &entities.StorageError{Op: "insert", Err: err}
	}
	return nil
}

// Find returns notices carrying every tag of the filter, in insertion order.
// Tags match whole elements of the stored list, so "ip" never matches "ipu".
func (repo *Notices) Find(ctx context.Context, filter entities.NoticeFilter) ([]entities.Notice, error) {
	query := repo.db.WithContext(ctx).Model(&entities.Notice{})

	for _, tag := range filter.Tags {
		query = query.Where(`(',' || tags || ',') LIKE ? ESCAPE '\'`, "%,"+escapeLike(tag)+",%")
	}

	if filter.Text != "" {
		pattern := "%" + escapeLike(filter.Text) + "%"
		query = query.Where(`(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var notices []entities.Notice
	if err := query.
		Order("id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&notices).Error; err != nil {
		return nil, &entities.StorageError{Op: "query", Err: err}
	}
	return notices, nil
}

func (repo *Notices) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&entities.Notice{}).Count(&count).Error; err != nil {
		return 0, &entities.StorageError{Op: "count", Err: err}
	}
	return count, nil
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
