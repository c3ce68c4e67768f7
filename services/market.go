package services

import (
	"context"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"listing-analytics/models"
	"listing-analytics/storage"
	"listing-analytics/utils"
)

const (
	mostReviewedLimit = 5
	bigHostThreshold  = 100
	flagTrue          = "t"
)

var (
	overviewQuery = models.Query{
		Projection: []string{
			models.FieldRoomType,
			models.FieldHostID,
			models.FieldHostName,
			models.FieldHostIsSuperhost,
		},
	}

	reviewedQuery = models.Query{
		Filter:     []models.Condition{models.Exists(models.FieldNumberOfReviews)},
		Projection: []string{models.FieldName, models.FieldNumberOfReviews},
	}

	instantBookableQuery = models.Query{
		Filter:     []models.Condition{models.Eq(models.FieldInstantBookable, flagTrue)},
		Projection: []string{models.FieldInstantBookable},
	}
)

var roomTypeCount = &Analysis{
	Title:      "Listings per room type",
	Columns:    []Column{{Field: models.FieldRoomType, Kind: TextField}},
	GroupBy:    models.FieldRoomType,
	Agg:        AggCount,
	Label:      "count",
	Descending: true,
}

// InsightService computes host and booking statistics over the whole collection
type InsightService struct {
	source storage.ListingSource
	logger *utils.Logger
}

// NewInsightService creates a new InsightService
func NewInsightService(source storage.ListingSource, logger *utils.Logger) *InsightService {
	return &InsightService{source: source, logger: logger}
}

// Generate fetches the overview fields and computes the market overview.
// Review rankings and the instant-booking count are filtered by the store.
func (s *InsightService) Generate(ctx context.Context) (*models.MarketOverview, error) {
	docs, err := s.source.Find(ctx, overviewQuery)
	if err != nil {
		return nil, errors.Wrap(err, "market overview")
	}
	if len(docs) == 0 {
		s.logger.Warn("No listings to generate the market overview from")
	}

	reviewed, err := s.source.Find(ctx, reviewedQuery)
	if err != nil {
		return nil, errors.Wrap(err, "most reviewed listings")
	}

	bookable, err := s.source.Find(ctx, instantBookableQuery)
	if err != nil {
		return nil, errors.Wrap(err, "instant bookable listings")
	}
	s.logger.Debug("Overview over %d listings, %d reviewed, %d instant bookable",
		len(docs), len(reviewed), len(bookable))

	return Overview(docs, reviewed, len(bookable))
}

// Overview computes the market overview. docs carries host and room type
// fields for every listing, reviewed the listings having a review count.
func Overview(docs, reviewed []models.Document, instantBookable int) (*models.MarketOverview, error) {
	o := &models.MarketOverview{TotalListings: len(docs), InstantBookable: instantBookable}

	byType, err := Aggregate(roomTypeCount, docs)
	if err != nil {
		return nil, errors.Wrap(err, "listings per room type")
	}
	o.ByRoomType = byType.Rows

	if o.MostReviewed, err = mostReviewed(reviewed, mostReviewedLimit); err != nil {
		return nil, err
	}

	hosts := utils.NewDistinctSet()
	superhosts := utils.NewDistinctSet()
	perHost := make(map[string]*models.HostListings)

	for _, doc := range docs {
		raw, _ := doc.Get(models.FieldHostID)
		hostID, ok := utils.ToText(raw)
		if !ok {
			continue
		}
		hosts.Add(hostID)
		if v, _ := doc.Get(models.FieldHostIsSuperhost); v == flagTrue {
			superhosts.Add(hostID)
		}

		h, seen := perHost[hostID]
		if !seen {
			name, _ := utils.ToText(doc[models.FieldHostName])
			h = &models.HostListings{HostID: hostID, HostName: name}
			perHost[hostID] = h
		}
		h.Listings++
	}

	o.DistinctHosts = hosts.Count()
	o.Superhosts = superhosts.Count()

	for _, h := range perHost {
		if h.Listings > bigHostThreshold {
			o.BigHosts = append(o.BigHosts, *h)
		}
	}
	sort.Slice(o.BigHosts, func(i, j int) bool {
		if o.BigHosts[i].Listings != o.BigHosts[j].Listings {
			return o.BigHosts[i].Listings > o.BigHosts[j].Listings
		}
		return o.BigHosts[i].HostID < o.BigHosts[j].HostID
	})

	return o, nil
}

// mostReviewed ranks listings having a usable review count, largest first
func mostReviewed(docs []models.Document, limit int) ([]models.ReviewedListing, error) {
	var (
		names   []string
		reviews []float64
	)
	for _, doc := range docs {
		raw, present := doc.Get(models.FieldNumberOfReviews)
		if !present {
			continue
		}
		n, ok := utils.ToInt(raw)
		if !ok {
			continue
		}
		name, _ := utils.ToText(doc[models.FieldName])
		names = append(names, name)
		reviews = append(reviews, float64(n))
	}
	if len(names) == 0 {
		return nil, nil
	}

	ranked := dataframe.New(
		series.New(names, series.String, models.FieldName),
		series.New(reviews, series.Float, models.FieldNumberOfReviews),
	).Arrange(dataframe.RevSort(models.FieldNumberOfReviews))
	if ranked.Err != nil {
		return nil, errors.Wrap(ranked.Err, "rank by reviews")
	}

	n := ranked.Nrow()
	if n > limit {
		n = limit
	}
	out := make([]models.ReviewedListing, 0, n)
	nameCol := ranked.Col(models.FieldName)
	reviewCol := ranked.Col(models.FieldNumberOfReviews)
	for i := 0; i < n; i++ {
		out = append(out, models.ReviewedListing{
			Name:    nameCol.Elem(i).String(),
			Reviews: int64(reviewCol.Elem(i).Float()),
		})
	}
	return out, nil
}
