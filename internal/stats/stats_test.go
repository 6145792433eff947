package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/models"
)

func ranking(userID, movieID string, rating, rankingYear, watchedYear int) models.RankingWithContext {
	return models.RankingWithContext{
		Ranking: models.Ranking{
			ID:          userID + ":" + movieID,
			UserID:      userID,
			MovieID:     movieID,
			Rating:      rating,
			RankingYear: rankingYear,
		},
		MovieTitle:  "Movie " + movieID,
		WatchedYear: watchedYear,
		Username:    "user_" + userID,
		DisplayName: "User " + userID,
	}
}

func TestAverageEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 0.0, Average([]int{}))
}

func TestAverageRounding(t *testing.T) {
	avg := Average([]int{9, 9, 9, 8})
	assert.InDelta(t, 8.75, avg, 1e-9)
	// Half rounds away from zero for display.
	assert.Equal(t, 8.8, Round1(avg))
	assert.Equal(t, 8.7, Round1(8.666666))
}

func TestDistributionAllBucketsPresent(t *testing.T) {
	dist := Distribution([]int{10, 10, 1})

	require.Len(t, dist, 10)
	for v := 1; v <= 10; v++ {
		_, ok := dist[v]
		assert.True(t, ok, "bucket %d missing", v)
	}
	assert.Equal(t, 2, dist[10])
	assert.Equal(t, 1, dist[1])
	assert.Equal(t, 0, dist[5])
}

func TestDistributionDropsOutOfRange(t *testing.T) {
	dist := Distribution([]int{0, 11, -3, 7})
	assert.Equal(t, 1, dist[7])
	total := 0
	for _, n := range dist {
		total += n
	}
	assert.Equal(t, 1, total)
}

func TestTopMoviesOrderingAndTies(t *testing.T) {
	// m1 averages 9.0, m2 averages 7.5, m3 averages 9.0 (tie with m1).
	rankings := []models.RankingWithContext{
		ranking("u1", "m1", 9, 2023, 2023),
		ranking("u2", "m1", 9, 2023, 2023),
		ranking("u1", "m2", 7, 2023, 2023),
		ranking("u2", "m2", 8, 2023, 2023),
		ranking("u1", "m3", 9, 2023, 2023),
	}

	top := TopMovies(rankings, 10)
	require.Len(t, top, 3)
	assert.Equal(t, 7.5, top[2].AverageRating)
	assert.Equal(t, "m2", top[2].MovieID)
	assert.Equal(t, 9.0, top[0].AverageRating)
	assert.Equal(t, 9.0, top[1].AverageRating)

	// Tied pair order is unspecified but must be stable across calls.
	again := TopMovies(rankings, 10)
	assert.Equal(t, top, again)
}

func TestTopMoviesTruncates(t *testing.T) {
	var rankings []models.RankingWithContext
	for i := 0; i < 7; i++ {
		rankings = append(rankings, ranking("u1", string(rune('a'+i)), i+3, 2023, 2023))
	}
	assert.Len(t, TopMovies(rankings, 5), 5)
}

func TestTopUsersByCount(t *testing.T) {
	rankings := []models.RankingWithContext{
		ranking("u1", "m1", 5, 2023, 2023),
		ranking("u2", "m1", 9, 2023, 2023),
		ranking("u2", "m2", 9, 2023, 2023),
		ranking("u2", "m3", 9, 2023, 2023),
		ranking("u1", "m2", 6, 2023, 2023),
	}

	top := TopUsers(rankings, 10)
	require.Len(t, top, 2)
	assert.Equal(t, "u2", top[0].UserID)
	assert.Equal(t, 3, top[0].Rankings)
	assert.Equal(t, "u1", top[1].UserID)
	assert.Equal(t, 2, top[1].Rankings)
	assert.Equal(t, 5.5, top[1].AverageRating)
}

func TestRollup(t *testing.T) {
	rankings := []models.RankingWithContext{
		ranking("u1", "m1", 8, 2023, 2023),
		ranking("u2", "m1", 9, 2023, 2023),
		ranking("u1", "m2", 10, 2023, 2023),
	}

	rollup := Rollup(2023, rankings, 10)
	assert.Equal(t, 2023, rollup.Year)
	assert.Equal(t, 3, rollup.TotalRankings)
	assert.Equal(t, 9.0, rollup.AverageRating)
	assert.Equal(t, 2, rollup.UniqueUsers)
	assert.Equal(t, 2, rollup.UniqueMovies)
}

func TestRollupEmpty(t *testing.T) {
	rollup := Rollup(2023, nil, 10)
	assert.Equal(t, 0, rollup.TotalRankings)
	assert.Equal(t, 0.0, rollup.AverageRating)
	assert.Empty(t, rollup.TopMovies)
}

// A ranking's own year and its movie's watched year feed two different
// groupings; the same data must land in different buckets per view.
func TestYearRollupsGroupingDistinction(t *testing.T) {
	rankings := []models.RankingWithContext{
		ranking("u1", "m1", 8, 2023, 2022), // rated in 2023, movie watched 2022
		ranking("u1", "m2", 6, 2022, 2022),
	}

	byRanking := YearRollups(rankings, ByRankingYear, 10)
	require.Len(t, byRanking, 2)
	assert.Equal(t, 2023, byRanking[0].Year)
	assert.Equal(t, 1, byRanking[0].TotalRankings)

	byWatched := YearRollups(rankings, ByWatchedYear, 10)
	require.Len(t, byWatched, 1)
	assert.Equal(t, 2022, byWatched[0].Year)
	assert.Equal(t, 2, byWatched[0].TotalRankings)
}

func TestOverall(t *testing.T) {
	rankings := []models.RankingWithContext{
		ranking("u1", "m1", 8, 2022, 2022),
		ranking("u1", "m2", 10, 2023, 2023),
	}

	overall := Overall(rankings, ByRankingYear, 10)
	assert.Equal(t, 2, overall.TotalRankings)
	assert.Equal(t, 9.0, overall.AverageRating)
	assert.Equal(t, 1, overall.Distribution[8])
	assert.Equal(t, 1, overall.Distribution[10])
	require.Len(t, overall.Years, 2)
	assert.Equal(t, 2023, overall.Years[0].Year)
}

func TestOverallEmpty(t *testing.T) {
	overall := Overall(nil, ByRankingYear, 10)
	assert.Equal(t, 0.0, overall.AverageRating)
	assert.Len(t, overall.Distribution, 10)
	assert.Empty(t, overall.Years)
}

func TestForMovieBreakdownYearDescending(t *testing.T) {
	rankings := []models.RankingWithContext{
		ranking("u1", "m1", 7, 2022, 2022),
		ranking("u2", "m1", 8, 2023, 2022),
		ranking("u3", "m1", 9, 2023, 2022),
	}

	ms := ForMovie("m1", rankings)
	assert.Equal(t, 3, ms.TotalRankings)
	assert.Equal(t, 8.0, ms.AverageRating)
	require.Len(t, ms.ByYear, 2)
	assert.Equal(t, 2023, ms.ByYear[0].Year)
	assert.Equal(t, 8.5, ms.ByYear[0].AverageRating)
	assert.Equal(t, 2022, ms.ByYear[1].Year)
}

func TestForMovieEmptyAverageIsZero(t *testing.T) {
	ms := ForMovie("m1", nil)
	assert.Equal(t, 0.0, ms.AverageRating)
	assert.Equal(t, 0, ms.TotalRankings)
}

// User stats report a nil average for the empty case where movie and
// overall stats report 0. Inherited behavior, kept deliberately.
func TestForUserEmptyAverageIsNull(t *testing.T) {
	us := ForUser("u1", nil)
	assert.Nil(t, us.AverageRating)
	assert.Equal(t, 0, us.TotalRankings)
	assert.Empty(t, us.YearsActive)
	assert.Len(t, us.Distribution, 10)
}

func TestForUserTopRankingsOrder(t *testing.T) {
	rankings := []models.RankingWithContext{
		ranking("u1", "m1", 6, 2022, 2022),
		ranking("u1", "m2", 9, 2023, 2023),
		ranking("u1", "m3", 7, 2023, 2023),
		ranking("u1", "m4", 10, 2022, 2022),
	}

	us := ForUser("u1", rankings)
	require.NotNil(t, us.AverageRating)
	assert.Equal(t, 8.0, *us.AverageRating)
	assert.Equal(t, []int{2023, 2022}, us.YearsActive)

	// Year descending first, then rating descending within a year.
	require.Len(t, us.TopRankings, 4)
	assert.Equal(t, "m2", us.TopRankings[0].MovieID)
	assert.Equal(t, "m3", us.TopRankings[1].MovieID)
	assert.Equal(t, "m4", us.TopRankings[2].MovieID)
	assert.Equal(t, "m1", us.TopRankings[3].MovieID)
}

func TestForUserTopRankingsCapped(t *testing.T) {
	var rankings []models.RankingWithContext
	for i := 0; i < 15; i++ {
		rankings = append(rankings, ranking("u1", string(rune('a'+i)), 1+i%10, 2023, 2023))
	}
	us := ForUser("u1", rankings)
	assert.Len(t, us.TopRankings, 10)
}

func TestUnrated(t *testing.T) {
	movies := []models.Movie{
		{ID: "A", Title: "A", WatchedYear: 2023},
		{ID: "B", Title: "B", WatchedYear: 2023},
		{ID: "C", Title: "C", WatchedYear: 2023},
	}
	userRankings := []models.Ranking{
		{MovieID: "A", RankingYear: 2023},
		// Rated B, but for a different year; B stays unrated for 2023.
		{MovieID: "B", RankingYear: 2022},
	}

	unrated := Unrated(movies, userRankings, 2023)
	require.Len(t, unrated, 2)
	assert.Equal(t, "B", unrated[0].ID)
	assert.Equal(t, "C", unrated[1].ID)
}

func TestUnratedNoRankings(t *testing.T) {
	movies := []models.Movie{{ID: "A"}, {ID: "B"}}
	assert.Len(t, Unrated(movies, nil, 2023), 2)
}
