package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Jadavivek/deepsolv/internal/insights"
)

func TestSaveInsightsUpsertsByURL(t *testing.T) {
	t.Parallel()

	store := NewInsightStore()
	ctx := context.Background()

	id1, err := store.SaveInsights(ctx, insights.BrandInsights{WebsiteURL: "https://a.test", BrandName: "A"})
	require.NoError(t, err)
	id2, err := store.SaveInsights(ctx, insights.BrandInsights{WebsiteURL: "https://a.test", BrandName: "A2"})
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	record, err := store.GetRecentInsights(ctx, "https://a.test", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, "A2", record.BrandName)
}

func TestGetRecentInsightsHonorsWindow(t *testing.T) {
	t.Parallel()

	store := NewInsightStore()
	ctx := context.Background()

	_, err := store.SaveInsights(ctx, insights.BrandInsights{
		WebsiteURL:  "https://a.test",
		ExtractedAt: time.Now().UTC().Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	record, err := store.GetRecentInsights(ctx, "https://a.test", time.Hour)
	require.NoError(t, err)
	require.Nil(t, record)

	record, err = store.GetRecentInsights(ctx, "https://a.test", 3*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestHistoryNewestFirstAndLimited(t *testing.T) {
	t.Parallel()

	store := NewInsightStore()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.LogExtraction(ctx, insights.ExtractionLog{
			WebsiteURL: "https://a.test",
			Status:     insights.ExtractionSucceeded,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.LogExtraction(ctx, insights.ExtractionLog{
		WebsiteURL: "https://other.test",
		Status:     insights.ExtractionFailed,
		CreatedAt:  base,
	}))

	logs, err := store.History(ctx, "https://a.test", 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.Equal(t, base.Add(4*time.Minute), logs[0].CreatedAt)
}

func TestStats(t *testing.T) {
	t.Parallel()

	store := NewInsightStore()
	ctx := context.Background()

	_, err := store.SaveInsights(ctx, insights.BrandInsights{
		WebsiteURL:     "https://a.test",
		ProductCatalog: []insights.Product{{Title: "x"}, {Title: "y"}},
	})
	require.NoError(t, err)

	require.NoError(t, store.LogExtraction(ctx, insights.ExtractionLog{
		WebsiteURL: "https://a.test", Status: insights.ExtractionSucceeded, Elapsed: 2 * time.Second,
	}))
	require.NoError(t, store.LogExtraction(ctx, insights.ExtractionLog{
		WebsiteURL: "https://b.test", Status: insights.ExtractionFailed,
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalExtractions)
	require.EqualValues(t, 1, stats.SuccessfulExtractions)
	require.InDelta(t, 50.0, stats.SuccessRate, 1e-9)
	require.InDelta(t, 2.0, stats.AverageElapsedSeconds, 1e-9)
	require.EqualValues(t, 1, stats.TotalBrands)
	require.EqualValues(t, 2, stats.TotalProducts)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store := NewInsightStore()
	ctx := context.Background()

	_, err := store.SaveInsights(ctx, insights.BrandInsights{WebsiteURL: "https://a.test"})
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, "https://a.test")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = store.Delete(ctx, "https://a.test")
	require.NoError(t, err)
	require.False(t, deleted)
}
