package history

import (
	"sort"
	"time"

	"leona-console/internal/domain"
)

type Bucket string

const (
	BucketToday     Bucket = "Today"
	BucketYesterday Bucket = "Yesterday"
	BucketLastWeek  Bucket = "Last 7 Days"
	BucketOlder     Bucket = "Older"
)

// Buckets lists the display buckets in order.
var Buckets = []Bucket{BucketToday, BucketYesterday, BucketLastWeek, BucketOlder}

type Group struct {
	Bucket        Bucket
	Conversations []domain.Conversation
}

// BucketOf places t by calendar date relative to now, in now's location.
func BucketOf(t, now time.Time) Bucket {
	day := startOfDay(t.In(now.Location()))
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := today.AddDate(0, 0, -7)

	switch {
	case day.Equal(today):
		return BucketToday
	case day.Equal(yesterday):
		return BucketYesterday
	case !day.Before(weekAgo):
		return BucketLastWeek
	default:
		return BucketOlder
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GroupByRecency partitions list into non-empty buckets, newest first within
// each bucket.
func GroupByRecency(list []domain.Conversation, now time.Time) []Group {
	byBucket := map[Bucket][]domain.Conversation{}
	for _, c := range list {
		b := BucketOf(c.LastActivity, now)
		byBucket[b] = append(byBucket[b], c)
	}
	var out []Group
	for _, b := range Buckets {
		convs := byBucket[b]
		if len(convs) == 0 {
			continue
		}
		sort.SliceStable(convs, func(i, j int) bool {
			return convs[i].LastActivity.After(convs[j].LastActivity)
		})
		out = append(out, Group{Bucket: b, Conversations: convs})
	}
	return out
}
