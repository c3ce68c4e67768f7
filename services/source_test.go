package services

import (
	"bytes"
	"context"
	"errors"

	"listing-analytics/models"
	"listing-analytics/utils"
)

// memSource is an in-memory ListingSource applying filters and projections
// the way the document store does
type memSource struct {
	docs    []models.Document
	queries []models.Query
	findErr error
	closed  bool
}

func (s *memSource) Find(ctx context.Context, q models.Query) ([]models.Document, error) {
	s.queries = append(s.queries, q)
	if s.findErr != nil {
		return nil, s.findErr
	}

	var out []models.Document
	for _, d := range s.docs {
		if !matches(d, q.Filter) {
			continue
		}
		if len(q.Projection) == 0 {
			out = append(out, d)
			continue
		}
		p := models.Document{}
		for _, f := range q.Projection {
			if v, ok := d[f]; ok {
				p[f] = v
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memSource) EstimatedCount(ctx context.Context) (int64, error) {
	return int64(len(s.docs)), nil
}

func (s *memSource) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

func matches(d models.Document, conds []models.Condition) bool {
	for _, c := range conds {
		v, present := d[c.Field]
		switch c.Op {
		case models.OpExists:
			if !present {
				return false
			}
		case models.OpEq:
			if !present || v != c.Values[0] {
				return false
			}
		case models.OpNotIn:
			for _, excluded := range c.Values {
				if excluded == nil && (!present || v == nil) {
					return false
				}
				if present && excluded != nil && v == excluded {
					return false
				}
			}
		}
	}
	return true
}

var errFind = errors.New("cursor died")

func quietLogger() *utils.Logger {
	return utils.NewLoggerTo(&bytes.Buffer{}, "error")
}
