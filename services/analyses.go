package services

import "listing-analytics/models"

const (
	daysPerYear  = 365.0
	daysPerMonth = 30.0

	labelBookingRate  = "avg_booking_rate_per_month"
	labelMedianReview = "median_number_of_reviews"
	labelListings     = "nb_logements"
	labelReservedDays = "avg_reserved_days_per_month"
)

// BookingRate is the estimated fraction of the year a listing is reserved
func BookingRate(availability365 float64) float64 {
	return 1 - availability365/daysPerYear
}

// ReservedDaysPerMonth scales the booking rate to a 30-day month
func ReservedDaysPerMonth(availability365 float64) float64 {
	return BookingRate(availability365) * daysPerMonth
}

// CoreAnalyses returns the five report analyses in print order. topN bounds
// the neighbourhood rankings; 0 keeps every neighbourhood.
func CoreAnalyses(topN int) []*Analysis {
	return []*Analysis{
		{
			ID:    1,
			Title: "Average booking rate per room type",
			Query: models.Query{
				Filter:     []models.Condition{models.NotIn(models.FieldAvailability365, nil, "")},
				Projection: []string{models.FieldRoomType, models.FieldAvailability365},
			},
			Columns: []Column{
				{Field: models.FieldRoomType, Kind: TextField},
				{Field: models.FieldAvailability365, Kind: IntField, Fallback: FallbackNull},
			},
			Derive: &Derivation{
				Name: "booking_rate_annual",
				From: models.FieldAvailability365,
				Fn:   BookingRate,
			},
			GroupBy:     models.FieldRoomType,
			Value:       "booking_rate_annual",
			Agg:         AggMean,
			Label:       labelBookingRate,
			SkipIfEmpty: true,
		},
		{
			ID:    2,
			Title: "Median number of reviews (all listings)",
			Query: models.Query{
				Projection: []string{models.FieldNumberOfReviews},
			},
			Columns: []Column{
				{Field: models.FieldNumberOfReviews, Kind: IntField, Fallback: FallbackZero},
			},
			Value: models.FieldNumberOfReviews,
			Agg:   AggMedian,
			Label: labelMedianReview,
		},
		{
			ID:    3,
			Title: "Median number of reviews per room type",
			Query: models.Query{
				Projection: []string{models.FieldRoomType, models.FieldNumberOfReviews},
			},
			Columns: []Column{
				{Field: models.FieldRoomType, Kind: TextField},
				{Field: models.FieldNumberOfReviews, Kind: IntField, Fallback: FallbackNull},
			},
			GroupBy: models.FieldRoomType,
			Value:   models.FieldNumberOfReviews,
			Agg:     AggMedian,
			Label:   labelMedianReview,
		},
		{
			ID:    4,
			Title: "Listing density per neighbourhood",
			Query: models.Query{
				Projection: []string{models.FieldNeighbourhoodCleansed, models.FieldAvailability365},
			},
			Columns: []Column{
				{Field: models.FieldNeighbourhoodCleansed, Kind: TextField},
				{Field: models.FieldAvailability365, Kind: FloatField, Fallback: FallbackZero},
			},
			Require:    []string{models.FieldNeighbourhoodCleansed},
			GroupBy:    models.FieldNeighbourhoodCleansed,
			Agg:        AggCount,
			Label:      labelListings,
			Descending: true,
			Limit:      topN,
		},
		{
			ID:    5,
			Title: "Neighbourhoods with the highest estimated monthly demand",
			Query: models.Query{
				Projection: []string{models.FieldNeighbourhoodCleansed, models.FieldAvailability365},
			},
			Columns: []Column{
				{Field: models.FieldNeighbourhoodCleansed, Kind: TextField},
				{Field: models.FieldAvailability365, Kind: FloatField, Fallback: FallbackZero},
			},
			Require: []string{models.FieldNeighbourhoodCleansed, models.FieldAvailability365},
			Derive: &Derivation{
				Name: "reserved_days_per_month",
				From: models.FieldAvailability365,
				Fn:   ReservedDaysPerMonth,
			},
			GroupBy:    models.FieldNeighbourhoodCleansed,
			Value:      "reserved_days_per_month",
			Agg:        AggMean,
			Label:      labelReservedDays,
			Descending: true,
			Limit:      topN,
		},
	}
}
