package services

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"listing-analytics/models"
	"listing-analytics/utils"
)

// FieldKind is the type a document field is coerced to
type FieldKind int

const (
	TextField FieldKind = iota
	IntField
	FloatField
)

// Fallback is what a field becomes when it is missing or cannot be coerced
type Fallback int

const (
	// FallbackNull excludes the value from aggregates
	FallbackNull Fallback = iota
	// FallbackZero substitutes 0, which then counts in aggregates
	FallbackZero
)

// Column describes how one document field becomes a frame column
type Column struct {
	Field    string
	Kind     FieldKind
	Fallback Fallback
}

// coerceValue converts one raw value. A nil result marks a null cell.
func coerceValue(raw interface{}, col Column) interface{} {
	switch col.Kind {
	case TextField:
		if s, ok := utils.ToText(raw); ok {
			return s
		}
		return nil
	case IntField:
		if n, ok := utils.ToInt(raw); ok {
			return float64(n)
		}
	case FloatField:
		if f, ok := utils.ToFloat(raw); ok {
			return f
		}
	}

	if col.Fallback == FallbackZero {
		return 0.0
	}
	return nil
}

// coerceColumn coerces field across all documents
func coerceColumn(docs []models.Document, col Column) []interface{} {
	values := make([]interface{}, len(docs))
	for i, doc := range docs {
		raw, _ := doc.Get(col.Field)
		values[i] = coerceValue(raw, col)
	}
	return values
}

// buildFrame turns documents into a typed frame. Numeric columns are
// float64 so integer coercions and derived ratios share one series type.
// String series treat the text "NaN" as NA, so such keys group with nulls.
func buildFrame(docs []models.Document, cols []Column) dataframe.DataFrame {
	cs := make([]series.Series, 0, len(cols))
	for _, col := range cols {
		typ := series.Float
		if col.Kind == TextField {
			typ = series.String
		}
		cs = append(cs, series.New(coerceColumn(docs, col), typ, col.Field))
	}
	return dataframe.New(cs...)
}
