package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-analytics/models"
)

func TestOverview(t *testing.T) {
	var docs []models.Document
	// one big host with 101 listings, all instantly bookable
	for i := 0; i < 101; i++ {
		docs = append(docs, models.Document{
			"name":              fmt.Sprintf("Studio %d", i),
			"room_type":         "Entire home/apt",
			"number_of_reviews": i % 3,
			"host_id":           int32(1),
			"host_name":         "Big Agency",
			"instant_bookable":  "t",
			"host_is_superhost": "f",
		})
	}
	docs = append(docs,
		models.Document{"name": "Loft", "room_type": "Private room", "number_of_reviews": 250, "host_id": int32(2), "host_name": "Ana", "instant_bookable": "f", "host_is_superhost": "t"},
		models.Document{"name": "Attic", "room_type": "Private room", "number_of_reviews": "120", "host_id": int32(2), "host_name": "Ana", "host_is_superhost": "t"},
		models.Document{"name": "Boat", "number_of_reviews": "n/a", "host_id": int32(3), "host_name": "Leo", "host_is_superhost": "t"},
		models.Document{"name": "Cave", "room_type": "Shared room"},
	)

	o, err := NewInsightService(&memSource{docs: docs}, quietLogger()).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 105, o.TotalListings)
	assert.Equal(t, 3, o.DistinctHosts)
	assert.Equal(t, 2, o.Superhosts)
	assert.Equal(t, 101, o.InstantBookable)
	assert.InDelta(t, 101.0/105*100, o.InstantBookableShare(), 1e-9)
	assert.InDelta(t, 66.666666, o.SuperhostShare(), 1e-5)

	require.Len(t, o.BigHosts, 1)
	assert.Equal(t, models.HostListings{HostID: "1", HostName: "Big Agency", Listings: 101}, o.BigHosts[0])
	assert.InDelta(t, 100.0/3, o.BigHostShare(), 1e-9)

	require.Len(t, o.MostReviewed, 5)
	assert.Equal(t, models.ReviewedListing{Name: "Loft", Reviews: 250}, o.MostReviewed[0])
	assert.Equal(t, models.ReviewedListing{Name: "Attic", Reviews: 120}, o.MostReviewed[1])
	assert.Equal(t, int64(2), o.MostReviewed[2].Reviews)

	require.Len(t, o.ByRoomType, 4)
	assert.Equal(t, "Entire home/apt", o.ByRoomType[0].Key)
	assert.Equal(t, 101, o.ByRoomType[0].Count)
	assert.Equal(t, "Private room", o.ByRoomType[1].Key)
	assert.Equal(t, 2, o.ByRoomType[1].Count)
}

func TestOverviewEmpty(t *testing.T) {
	o, err := Overview(nil, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, o.TotalListings)
	assert.Empty(t, o.MostReviewed)
	assert.Zero(t, o.InstantBookableShare())
	assert.Zero(t, o.BigHostShare())
	assert.Zero(t, o.SuperhostShare())
}

func TestInsightServiceGenerate(t *testing.T) {
	src := &memSource{docs: []models.Document{
		{"name": "Loft", "host_id": "h1", "instant_bookable": "t", "number_of_reviews": 3, "secret": "not projected"},
		{"name": "Barn", "host_id": "h2", "instant_bookable": "f"},
		{"name": "Shed", "host_id": "h2", "instant_bookable": true, "number_of_reviews": nil},
	}}

	o, err := NewInsightService(src, quietLogger()).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, o.TotalListings)
	assert.Equal(t, 2, o.DistinctHosts)
	assert.Equal(t, 1, o.InstantBookable, "only the literal flag t counts")
	assert.Equal(t, []models.ReviewedListing{{Name: "Loft", Reviews: 3}}, o.MostReviewed)

	require.Len(t, src.queries, 3)
	for _, q := range src.queries {
		assert.NotContains(t, q.Projection, "secret")
	}
	assert.Empty(t, src.queries[0].Filter)
	assert.Equal(t, []models.Condition{models.Exists(models.FieldNumberOfReviews)}, src.queries[1].Filter)
	assert.Equal(t, []models.Condition{models.Eq(models.FieldInstantBookable, "t")}, src.queries[2].Filter)

	_, err = NewInsightService(&memSource{findErr: errFind}, quietLogger()).Generate(context.Background())
	assert.ErrorIs(t, err, errFind)
}
