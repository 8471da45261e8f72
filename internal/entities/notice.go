package entities

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// IpuTag is the category every scraped notice is stored with.
const IpuTag = "ipu"

const tagsSeparator = ","

type Notice struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ViewLink     string    `json:"view_link"`
	DownloadLink string    `json:"download_link"`
	Tags         string    `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Notice) TableName() string {
	return "notifications"
}

func NewNotice(raw RawNotice, tags ...string) Notice {
	return Notice{
		Title:        raw.Title,
		Description:  raw.Year,
		ViewLink:     raw.ViewLink,
		DownloadLink: raw.DownloadLink,
		Tags:         JoinTags(tags),
	}
}

func (n Notice) TagsAsArray() []string {
	if n.Tags == "" {
		return []string{}
	}
	return strings.Split(n.Tags, tagsSeparator)
}

// RawNotice is one row extracted from the schedule notices page.
type RawNotice struct {
	Title        string
	Year         string
	ViewLink     string
	DownloadLink string
}

func JoinTags(tags []string) string {
	return strings.Join(NormalizeTags(tags), tagsSeparator)
}

// NormalizeTags trims tags, drops blank ones and removes duplicates keeping the first occurrence.
func NormalizeTags(tags []string) []string {
	trimmed := lo.Map(tags, func(tag string, _ int) string {
		return strings.TrimSpace(tag)
	})
	return lo.Uniq(lo.Compact(trimmed))
}

type NoticeFilter struct {
	Tags   []string
	Text   string
	Limit  int
	Offset int
}
