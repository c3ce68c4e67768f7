package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"listing-analytics/models"
)

func TestMongoFilter(t *testing.T) {
	filter := mongoFilter([]models.Condition{
		models.NotIn(models.FieldAvailability365, nil, ""),
		models.Exists(models.FieldNumberOfReviews),
		models.Eq(models.FieldInstantBookable, "t"),
		models.Exists(models.FieldAvailability365),
	})

	want := bson.D{
		{Key: models.FieldAvailability365, Value: bson.D{
			{Key: "$nin", Value: bson.A{nil, ""}},
			{Key: "$exists", Value: true},
		}},
		{Key: models.FieldNumberOfReviews, Value: bson.D{{Key: "$exists", Value: true}}},
		{Key: models.FieldInstantBookable, Value: bson.D{{Key: "$eq", Value: "t"}}},
	}
	assert.Equal(t, want, filter)
}

func TestMongoFilterEmpty(t *testing.T) {
	assert.Equal(t, bson.D{}, mongoFilter(nil))
}

func TestMongoProjection(t *testing.T) {
	proj := mongoProjection([]string{models.FieldRoomType, models.FieldNumberOfReviews})
	assert.Equal(t, bson.D{
		{Key: models.FieldRoomType, Value: 1},
		{Key: models.FieldNumberOfReviews, Value: 1},
		{Key: "_id", Value: 0},
	}, proj)
}
