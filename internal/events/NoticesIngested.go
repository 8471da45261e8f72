package events

import "github.com/maxaizer/ipu-notifier/internal/entities"

var NoticesIngestedTopic = "NoticesIngestedEvent"

type NoticesIngested struct {
	Notices []entities.Notice
	Skipped int
}
