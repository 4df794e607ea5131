package feed

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripshare/internal/model"
)

func fixtures() []model.Experience {
	return []model.Experience{
		{
			ID: "1", PlaceName: "Port Fish House", Type: model.CategoryRestaurant,
			Location: "Tel Aviv - Port", Description: "Grilled fish with a sea view",
			Tips: "Book a table at sunset", Rating: 5,
			Coordinates: &model.Coordinates{Lat: 32.0973, Lng: 34.7735},
			Comments:    []model.Comment{{ID: "c1", CommenterID: "2", Content: "Great!"}},
		},
		{
			ID: "2", PlaceName: "Dead Sea Beach", Type: model.CategoryNature,
			Location: "Dead Sea", Description: "Float in the salty water",
			Tips: "Bring water shoes", Rating: 4,
			Coordinates: &model.Coordinates{Lat: 31.5590, Lng: 35.4732},
		},
		{
			ID: "3", PlaceName: "Sheinkin Corner Cafe", Type: model.CategoryCafe,
			Location: "Tel Aviv - Sheinkin", Description: "Quiet coffee spot",
			Tips: "Try the cheesecake", Rating: 4,
			Comments: []model.Comment{{ID: "c2", CommenterID: "1", Content: "Love it"}},
		},
	}
}

func ids(exps []model.Experience) []string {
	out := make([]string, len(exps))
	for i, e := range exps {
		out[i] = e.ID
	}
	return out
}

// =============================================================================
// QUERY
// =============================================================================

func TestQuery(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		filter model.Category
		want   []string
	}{
		{"empty term all types", "", model.CategoryAll, []string{"1", "2", "3"}},
		{"case insensitive location", "TEL AVIV", model.CategoryAll, []string{"1", "3"}},
		{"matches tips", "cheesecake", model.CategoryAll, []string{"3"}},
		{"matches description", "SALTY", model.CategoryAll, []string{"2"}},
		{"type only", "", model.CategoryNature, []string{"2"}},
		{"term and type", "tel aviv", model.CategoryCafe, []string{"3"}},
		{"term and mismatched type", "dead sea", model.CategoryCafe, []string{}},
		{"no match", "tokyo", model.CategoryAll, []string{}},
		{"empty filter acts as all", "", "", []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Query(fixtures(), tt.term, tt.filter)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	in := fixtures()
	before := ids(in)

	out := Query(in, "tel", model.CategoryAll)
	require.Len(t, out, 2)
	out[0].PlaceName = "changed"

	assert.Equal(t, before, ids(in))
	assert.Equal(t, "Port Fish House", in[0].PlaceName)
}

func TestQuery_Properties(t *testing.T) {
	terms := []string{"", "a", "tel", "SEA", "xyz", "coffee", " "}
	filters := append([]model.Category{model.CategoryAll}, model.Categories...)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		in := fixtures()
		rng.Shuffle(len(in), func(a, b int) { in[a], in[b] = in[b], in[a] })
		term := terms[rng.Intn(len(terms))]
		filter := filters[rng.Intn(len(filters))]

		out := Query(in, term, filter)

		// order-preserving subsequence of the input
		j := 0
		for _, e := range out {
			for j < len(in) && in[j].ID != e.ID {
				j++
			}
			require.Less(t, j, len(in), "result is not a subsequence of the input")
			j++
		}

		// idempotent
		assert.Equal(t, ids(out), ids(Query(out, term, filter)))
	}

	in := fixtures()
	assert.Equal(t, ids(in), ids(Query(in, "", model.CategoryAll)))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAll, f)

	f, err = ParseFilter("ALL")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAll, f)

	f, err = ParseFilter("nightlife")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryNightlife, f)

	_, err = ParseFilter("spa")
	assert.ErrorIs(t, err, model.ErrInvalidCategory)
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 4.5, AverageRating([]model.Experience{{Rating: 4}, {Rating: 5}}))
	assert.Equal(t, 4.3, AverageRating([]model.Experience{{Rating: 5}, {Rating: 4}, {Rating: 4}}))
	assert.Equal(t, 3.0, AverageRating([]model.Experience{{Rating: 3}}))
}

func TestCommentCount(t *testing.T) {
	exps := fixtures()
	assert.Equal(t, 1, CommentCount(exps[0]))
	assert.Equal(t, 0, CommentCount(exps[1]))
}

func TestStats(t *testing.T) {
	stats := Stats(fixtures())
	assert.Equal(t, model.ProfileStats{ExperienceCount: 3, CommentCount: 2, AverageRating: 4.3}, stats)

	assert.Equal(t, model.ProfileStats{}, Stats(nil))
}

// =============================================================================
// GEO
// =============================================================================

func TestDistanceKm(t *testing.T) {
	telAviv := model.Coordinates{Lat: 32.0853, Lng: 34.7818}
	jerusalem := model.Coordinates{Lat: 31.7683, Lng: 35.2137}

	assert.InDelta(t, 54, DistanceKm(telAviv, jerusalem), 2)
	assert.InDelta(t, 0, DistanceKm(telAviv, telAviv), 1e-9)
}

func TestNearby(t *testing.T) {
	telAviv := model.Coordinates{Lat: 32.0853, Lng: 34.7818}

	got := Nearby(fixtures(), telAviv, 10)
	assert.Equal(t, []string{"1"}, ids(got), "experiences without coordinates are dropped")

	got = Nearby(fixtures(), telAviv, 200)
	assert.Equal(t, []string{"1", "2"}, ids(got))
}
