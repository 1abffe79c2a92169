package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leona-console/internal/domain"
)

func TestBucketOf(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		at   time.Time
		want Bucket
	}{
		{"today", now.Add(-time.Hour), BucketToday},
		{"today later", time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC), BucketToday},
		{"yesterday", now.AddDate(0, 0, -1), BucketYesterday},
		{"yesterday early", time.Date(2026, 10, 18, 0, 0, 1, 0, time.UTC), BucketYesterday},
		{"3 days ago", now.AddDate(0, 0, -3), BucketLastWeek},
		{"7 days ago", now.AddDate(0, 0, -7), BucketLastWeek},
		{"10 days ago", now.AddDate(0, 0, -10), BucketOlder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, BucketOf(tc.at, now))
		})
	}
}

func TestGroupByRecency(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	list := []domain.Conversation{
		{ID: "old", LastActivity: now.AddDate(0, 0, -10)},
		{ID: "today-early", LastActivity: now.Add(-3 * time.Hour)},
		{ID: "today-late", LastActivity: now.Add(-time.Hour)},
		{ID: "three", LastActivity: now.AddDate(0, 0, -3)},
	}
	groups := GroupByRecency(list, now)
	require.Len(t, groups, 3, "empty buckets are omitted")

	require.Equal(t, BucketToday, groups[0].Bucket)
	require.Equal(t, "today-late", groups[0].Conversations[0].ID)
	require.Equal(t, "today-early", groups[0].Conversations[1].ID)
	require.Equal(t, BucketLastWeek, groups[1].Bucket)
	require.Equal(t, BucketOlder, groups[2].Bucket)
	require.Equal(t, "old", groups[2].Conversations[0].ID)
}
