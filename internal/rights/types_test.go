package rights

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for _, c := range AllCategories() {
		got, err := ParseCategory(string(c))
		require.NoError(t, err)
		require.Equal(t, c, got)
	}

	_, err := ParseCategory("cosmetics")
	require.Error(t, err)
	_, err = ParseCategory("")
	require.Error(t, err)
}

func TestPostEngagement(t *testing.T) {
	t.Parallel()

	p := Post{Likes: 10, Comments: 4, Favorites: 1}
	require.Equal(t, 15, p.Engagement())
	require.Zero(t, Post{}.Engagement())
}

func TestCategoryRunFailedKeywords(t *testing.T) {
	t.Parallel()

	run := CategoryRun{
		Category: CategoryMaleHealth,
		Keywords: []KeywordOutcome{
			{Keyword: "a", Status: OutcomeSucceeded},
			{Keyword: "b", Status: OutcomeFailed, Error: "network failure"},
			{Keyword: "c", Status: OutcomeFailed, Error: "rate limited"},
		},
	}

	failed := run.FailedKeywords()
	require.Len(t, failed, 2)
	require.Equal(t, "b", failed[0].Keyword)
	require.Equal(t, "c", failed[1].Keyword)
}

func TestRunSummaryTotalNew(t *testing.T) {
	t.Parallel()

	s := RunSummary{Categories: []CategoryRun{
		{Category: CategoryMedicalBeauty, PostsNew: 3},
		{Category: CategoryGeneralRights, PostsNew: 5},
	}}
	require.Equal(t, 8, s.TotalNew())
}
