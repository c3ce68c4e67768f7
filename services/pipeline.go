package services

import (
	"context"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"listing-analytics/models"
	"listing-analytics/storage"
	"listing-analytics/utils"
)

// AggKind is the per-group aggregate an analysis computes
type AggKind int

const (
	AggMean AggKind = iota
	AggMedian
	AggCount
)

// Derivation adds a float column computed from another one. Null inputs
// stay null.
type Derivation struct {
	Name string
	From string
	Fn   func(float64) float64
}

// Analysis is one fetch → coerce → group-aggregate → sort pass
type Analysis struct {
	ID          int
	Title       string
	Query       models.Query
	Columns     []Column
	Require     []string // rows with a null in any of these columns are dropped
	Derive      *Derivation
	GroupBy     string // empty means one global group
	Value       string // column fed to the aggregate, unused for AggCount
	Agg         AggKind
	Label       string // printed name of the aggregate
	Descending  bool   // rank groups by aggregate, largest first
	Limit       int    // keep at most Limit groups, 0 keeps all
	SkipIfEmpty bool   // warn and skip instead of printing an empty table
}

// Pipeline runs analyses against one listing source
type Pipeline struct {
	source storage.ListingSource
	logger *utils.Logger
}

// NewPipeline creates a pipeline reading from source
func NewPipeline(source storage.ListingSource, logger *utils.Logger) *Pipeline {
	return &Pipeline{source: source, logger: logger}
}

// Run fetches the analysis' documents and aggregates them
func (p *Pipeline) Run(ctx context.Context, a *Analysis) (*models.AnalysisResult, error) {
	docs, err := p.source.Find(ctx, a.Query)
	if err != nil {
		return nil, errors.Wrapf(err, "analysis %d", a.ID)
	}
	p.logger.Debug("Analysis %d: %d documents", a.ID, len(docs))

	result, err := Aggregate(a, docs)
	if err != nil {
		return nil, errors.Wrapf(err, "analysis %d", a.ID)
	}
	if result.Skipped {
		p.logger.Warn("Analysis %d skipped: %s", a.ID, result.Warning)
	}
	return result, nil
}

// Aggregate applies the analysis to already fetched documents
func Aggregate(a *Analysis, docs []models.Document) (*models.AnalysisResult, error) {
	result := &models.AnalysisResult{
		ID:      a.ID,
		Title:   a.Title,
		KeyName: a.GroupBy,
		Column:  a.Label,
	}

	if len(docs) == 0 && a.SkipIfEmpty {
		result.Skipped = true
		result.Warning = "no usable records returned by the query"
		return result, nil
	}

	df := dataframe.DataFrame{}
	if len(docs) > 0 {
		df = buildFrame(docs, a.Columns)
		if df.Err != nil {
			return nil, errors.Wrap(df.Err, "build frame")
		}
		df = dropNulls(df, a.Require)
		if df.Err != nil {
			return nil, errors.Wrap(df.Err, "filter nulls")
		}
	}

	if df.Nrow() == 0 {
		if a.SkipIfEmpty {
			result.Skipped = true
			result.Warning = "no usable records after filtering nulls"
			return result, nil
		}
		if a.GroupBy == "" {
			result.Rows = []models.GroupStat{{}}
		}
		return result, nil
	}

	if a.Derive != nil {
		df = derive(df, a.Derive)
		if df.Err != nil {
			return nil, errors.Wrap(df.Err, "derive "+a.Derive.Name)
		}
	}

	rows, err := groupAggregate(df, a)
	if err != nil {
		return nil, err
	}

	if a.Descending {
		rows, err = rankDescending(rows)
		if err != nil {
			return nil, err
		}
	}
	if a.Limit > 0 && len(rows) > a.Limit {
		rows = rows[:a.Limit]
	}

	result.Rows = rows
	return result, nil
}

// dropNulls keeps rows where every listed column is non-null
func dropNulls(df dataframe.DataFrame, cols []string) dataframe.DataFrame {
	if len(cols) == 0 {
		return df
	}

	keep := make([]int, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		ok := true
		for _, c := range cols {
			if isNull(df.Col(c).Elem(i)) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	if len(keep) == df.Nrow() {
		return df
	}
	if len(keep) == 0 {
		return dataframe.DataFrame{}
	}
	return df.Subset(keep)
}

func isNull(e series.Element) bool {
	if e.IsNA() {
		return true
	}
	if e.Type() == series.Float {
		return math.IsNaN(e.Float())
	}
	return false
}

func derive(df dataframe.DataFrame, d *Derivation) dataframe.DataFrame {
	src := df.Col(d.From).Float()
	out := make([]interface{}, len(src))
	for i, v := range src {
		if math.IsNaN(v) {
			continue
		}
		out[i] = d.Fn(v)
	}
	return df.Mutate(series.New(out, series.Float, d.Name))
}

// groupAggregate computes one GroupStat per group. Groups are returned by
// key, null key last.
func groupAggregate(df dataframe.DataFrame, a *Analysis) ([]models.GroupStat, error) {
	if a.GroupBy == "" {
		return []models.GroupStat{aggregateGroup(df, a)}, nil
	}

	// Null keys are split off first: GroupBy rebuilds groups from values
	// and would not keep them apart from literal keys.
	var keyed, unkeyed []int
	keys := df.Col(a.GroupBy)
	for i := 0; i < df.Nrow(); i++ {
		if isNull(keys.Elem(i)) {
			unkeyed = append(unkeyed, i)
		} else {
			keyed = append(keyed, i)
		}
	}

	var rows []models.GroupStat
	if len(keyed) > 0 {
		groups := df.Subset(keyed).GroupBy(a.GroupBy)
		if groups.Err != nil {
			return nil, errors.Wrap(groups.Err, "group by "+a.GroupBy)
		}
		for _, g := range groups.GetGroups() {
			if g.Nrow() == 0 {
				continue
			}
			stat := aggregateGroup(g, a)
			stat.Key = g.Col(a.GroupBy).Elem(0).String()
			rows = append(rows, stat)
		}
	}
	if len(unkeyed) > 0 {
		stat := aggregateGroup(df.Subset(unkeyed), a)
		stat.KeyNull = true
		rows = append(rows, stat)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].KeyNull != rows[j].KeyNull {
			return !rows[i].KeyNull
		}
		return rows[i].Key < rows[j].Key
	})
	return rows, nil
}

func aggregateGroup(g dataframe.DataFrame, a *Analysis) models.GroupStat {
	stat := models.GroupStat{Count: g.Nrow()}

	if a.Agg == AggCount {
		stat.Value = float64(stat.Count)
		stat.Valid = true
		return stat
	}

	values := nonNull(g.Col(a.Value).Float())
	if len(values) == 0 {
		return stat
	}

	s := series.Floats(values)
	switch a.Agg {
	case AggMean:
		stat.Value = s.Mean()
	case AggMedian:
		stat.Value = s.Median()
	}
	stat.Valid = true
	return stat
}

func nonNull(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// rankDescending orders rows by aggregate value, largest first. Rows with
// equal values keep their incoming (key) order; null aggregates go last.
func rankDescending(rows []models.GroupStat) ([]models.GroupStat, error) {
	if len(rows) < 2 {
		return rows, nil
	}

	pos := make([]int, len(rows))
	vals := make([]interface{}, len(rows))
	for i, r := range rows {
		pos[i] = i
		if r.Valid {
			vals[i] = r.Value
		}
	}

	ranked := dataframe.New(
		series.New(pos, series.Int, "pos"),
		series.New(vals, series.Float, "value"),
	).Arrange(dataframe.RevSort("value"))
	if ranked.Err != nil {
		return nil, errors.Wrap(ranked.Err, "rank groups")
	}

	order, err := ranked.Col("pos").Int()
	if err != nil {
		return nil, errors.Wrap(err, "read ranking")
	}

	out := make([]models.GroupStat, 0, len(rows))
	for _, i := range order {
		out = append(out, rows[i])
	}
	return out, nil
}
