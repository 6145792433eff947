// Package stats computes the aggregate figures served by the stats
// endpoints. Every function is pure: rankings go in, derived numbers come
// out, and empty input produces the documented zero values rather than an
// error.
package stats

import (
	"math"
	"sort"

	"movierank/internal/models"
)

// YearGrouping selects which year attribute a rollup groups on. The two
// groupings are distinct views and must not be conflated: the per-year
// rankings report groups on the movie's watched year, while user and movie
// stats group on the ranking's own ranking year.
type YearGrouping int

const (
	ByRankingYear YearGrouping = iota
	ByWatchedYear
)

func (g YearGrouping) yearOf(r models.RankingWithContext) int {
	if g == ByWatchedYear {
		return r.WatchedYear
	}
	return r.RankingYear
}

const (
	minRating = 1
	maxRating = 10
)

type MovieAverage struct {
	MovieID       string  `json:"movieId"`
	Title         string  `json:"title"`
	WatchedYear   int     `json:"watchedYear"`
	AverageRating float64 `json:"averageRating"`
	Rankings      int     `json:"rankings"`
}

type UserActivity struct {
	UserID        string  `json:"userId"`
	Username      string  `json:"username"`
	DisplayName   string  `json:"displayName"`
	Rankings      int     `json:"rankings"`
	AverageRating float64 `json:"averageRating"`
}

type YearRollup struct {
	Year          int            `json:"year"`
	TotalRankings int            `json:"totalRankings"`
	AverageRating float64        `json:"averageRating"`
	UniqueUsers   int            `json:"uniqueUsers"`
	UniqueMovies  int            `json:"uniqueMovies"`
	TopMovies     []MovieAverage `json:"topMovies"`
	TopUsers      []UserActivity `json:"topUsers"`
}

type OverallStats struct {
	TotalRankings int          `json:"totalRankings"`
	AverageRating float64      `json:"averageRating"`
	Distribution  map[int]int  `json:"distribution"`
	Years         []YearRollup `json:"years"`
}

type YearBreakdown struct {
	Year          int     `json:"year"`
	TotalRankings int     `json:"totalRankings"`
	AverageRating float64 `json:"averageRating"`
}

type MovieStats struct {
	MovieID       string          `json:"movieId"`
	TotalRankings int             `json:"totalRankings"`
	AverageRating float64         `json:"averageRating"`
	Distribution  map[int]int     `json:"distribution"`
	ByYear        []YearBreakdown `json:"byYear"`
}

// UserStats reports a user's ranking history. AverageRating is nil when the
// user has no rankings, unlike movie and overall stats which report 0 for
// the empty case. The asymmetry is inherited behavior, kept on purpose; see
// DESIGN.md.
type UserStats struct {
	UserID        string                      `json:"userId"`
	TotalRankings int                         `json:"totalRankings"`
	AverageRating *float64                    `json:"averageRating"`
	YearsActive   []int                       `json:"yearsActive"`
	TopRankings   []models.RankingWithContext `json:"topRankings"`
	Distribution  map[int]int                 `json:"distribution"`
}

// Average returns the mean of ratings, or 0 for an empty slice.
func Average(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}

// Round1 rounds to one decimal place for display, half away from zero:
// 8.75 rounds to 8.8.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Distribution buckets ratings by integer value. All buckets 1..10 are
// always present, zero counts included. Values are rounded to the nearest
// integer first and anything outside 1..10 after rounding is dropped;
// ratings are already integers in range, so both are safeguards.
func Distribution(ratings []int) map[int]int {
	dist := make(map[int]int, maxRating)
	for v := minRating; v <= maxRating; v++ {
		dist[v] = 0
	}
	for _, r := range ratings {
		v := int(math.Round(float64(r)))
		if v < minRating || v > maxRating {
			continue
		}
		dist[v]++
	}
	return dist
}

// TopMovies groups rankings by movie, averages each movie's ratings and
// returns the n highest averages. Ties keep first-seen order; the sort is
// stable, so repeated calls over unchanged data return the same order.
func TopMovies(rankings []models.RankingWithContext, n int) []MovieAverage {
	type acc struct {
		sum, count int
	}
	byMovie := make(map[string]*acc)
	var order []models.RankingWithContext
	for _, r := range rankings {
		a, ok := byMovie[r.MovieID]
		if !ok {
			a = &acc{}
			byMovie[r.MovieID] = a
			order = append(order, r)
		}
		a.sum += r.Rating
		a.count++
	}

	out := make([]MovieAverage, 0, len(order))
	for _, r := range order {
		a := byMovie[r.MovieID]
		out = append(out, MovieAverage{
			MovieID:       r.MovieID,
			Title:         r.MovieTitle,
			WatchedYear:   r.WatchedYear,
			AverageRating: Round1(float64(a.sum) / float64(a.count)),
			Rankings:      a.count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageRating > out[j].AverageRating
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TopUsers groups rankings by user and returns the n most active users by
// ranking count, descending, ties in first-seen order.
func TopUsers(rankings []models.RankingWithContext, n int) []UserActivity {
	type acc struct {
		sum, count int
	}
	byUser := make(map[string]*acc)
	var order []models.RankingWithContext
	for _, r := range rankings {
		a, ok := byUser[r.UserID]
		if !ok {
			a = &acc{}
			byUser[r.UserID] = a
			order = append(order, r)
		}
		a.sum += r.Rating
		a.count++
	}

	out := make([]UserActivity, 0, len(order))
	for _, r := range order {
		a := byUser[r.UserID]
		out = append(out, UserActivity{
			UserID:        r.UserID,
			Username:      r.Username,
			DisplayName:   r.DisplayName,
			Rankings:      a.count,
			AverageRating: Round1(float64(a.sum) / float64(a.count)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rankings > out[j].Rankings
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Rollup computes the aggregate figures for one year's worth of rankings.
// The caller has already filtered rankings to the year under the grouping
// it cares about.
func Rollup(year int, rankings []models.RankingWithContext, topN int) YearRollup {
	users := make(map[string]struct{})
	movies := make(map[string]struct{})
	ratings := make([]int, 0, len(rankings))
	for _, r := range rankings {
		users[r.UserID] = struct{}{}
		movies[r.MovieID] = struct{}{}
		ratings = append(ratings, r.Rating)
	}
	return YearRollup{
		Year:          year,
		TotalRankings: len(rankings),
		AverageRating: Round1(Average(ratings)),
		UniqueUsers:   len(users),
		UniqueMovies:  len(movies),
		TopMovies:     TopMovies(rankings, topN),
		TopUsers:      TopUsers(rankings, topN),
	}
}

// YearRollups groups rankings by the selected year attribute and returns a
// rollup per distinct year, newest first.
func YearRollups(rankings []models.RankingWithContext, grouping YearGrouping, topN int) []YearRollup {
	byYear := make(map[int][]models.RankingWithContext)
	for _, r := range rankings {
		y := grouping.yearOf(r)
		byYear[y] = append(byYear[y], r)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	out := make([]YearRollup, 0, len(years))
	for _, y := range years {
		out = append(out, Rollup(y, byYear[y], topN))
	}
	return out
}

// Overall combines the per-year rollups with one average and distribution
// across every ranking.
func Overall(rankings []models.RankingWithContext, grouping YearGrouping, topN int) OverallStats {
	ratings := make([]int, 0, len(rankings))
	for _, r := range rankings {
		ratings = append(ratings, r.Rating)
	}
	return OverallStats{
		TotalRankings: len(rankings),
		AverageRating: Round1(Average(ratings)),
		Distribution:  Distribution(ratings),
		Years:         YearRollups(rankings, grouping, topN),
	}
}

// ForMovie computes one movie's stats from its rankings. The per-year
// breakdown groups on the ranking year, newest first.
func ForMovie(movieID string, rankings []models.RankingWithContext) MovieStats {
	ratings := make([]int, 0, len(rankings))
	byYear := make(map[int][]int)
	for _, r := range rankings {
		ratings = append(ratings, r.Rating)
		byYear[r.RankingYear] = append(byYear[r.RankingYear], r.Rating)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	breakdown := make([]YearBreakdown, 0, len(years))
	for _, y := range years {
		breakdown = append(breakdown, YearBreakdown{
			Year:          y,
			TotalRankings: len(byYear[y]),
			AverageRating: Round1(Average(byYear[y])),
		})
	}
	return MovieStats{
		MovieID:       movieID,
		TotalRankings: len(rankings),
		AverageRating: Round1(Average(ratings)),
		Distribution:  Distribution(ratings),
		ByYear:        breakdown,
	}
}

// ForUser computes one user's stats from their rankings. Top rankings are
// ordered by ranking year descending, rating descending, capped at ten.
func ForUser(userID string, rankings []models.RankingWithContext) UserStats {
	ratings := make([]int, 0, len(rankings))
	yearSet := make(map[int]struct{})
	for _, r := range rankings {
		ratings = append(ratings, r.Rating)
		yearSet[r.RankingYear] = struct{}{}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	top := make([]models.RankingWithContext, len(rankings))
	copy(top, rankings)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].RankingYear != top[j].RankingYear {
			return top[i].RankingYear > top[j].RankingYear
		}
		return top[i].Rating > top[j].Rating
	})
	if len(top) > 10 {
		top = top[:10]
	}

	var avg *float64
	if len(ratings) > 0 {
		v := Round1(Average(ratings))
		avg = &v
	}
	return UserStats{
		UserID:        userID,
		TotalRankings: len(rankings),
		AverageRating: avg,
		YearsActive:   years,
		TopRankings:   top,
		Distribution:  Distribution(ratings),
	}
}

// Unrated returns the movies the user has not rated for the given year. A
// ranking only counts against a movie when its ranking year equals the
// queried year; a rating from another year leaves the movie unrated here.
func Unrated(movies []models.Movie, userRankings []models.Ranking, year int) []models.Movie {
	rated := make(map[string]struct{})
	for _, r := range userRankings {
		if r.RankingYear == year {
			rated[r.MovieID] = struct{}{}
		}
	}
	out := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if _, ok := rated[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}
