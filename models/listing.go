package models

// Field names of a listing document as stored in the source collection
const (
	FieldName                  = "name"
	FieldRoomType              = "room_type"
	FieldAvailability365       = "availability_365"
	FieldNumberOfReviews       = "number_of_reviews"
	FieldNeighbourhoodCleansed = "neighbourhood_cleansed"
	FieldHostID                = "host_id"
	FieldHostName              = "host_name"
	FieldInstantBookable       = "instant_bookable"
	FieldHostIsSuperhost       = "host_is_superhost"
)

// Document is one loosely-typed listing record as returned by a source.
// Values may be strings, numbers, booleans or nil depending on how the
// collection was imported.
type Document map[string]interface{}

// Get returns the raw value of a field and whether the field is present
func (d Document) Get(field string) (interface{}, bool) {
	v, ok := d[field]
	return v, ok
}

// GroupStat is one row of an aggregated analysis
type GroupStat struct {
	Key     string
	KeyNull bool    // group of records where the grouping field was null/absent
	Value   float64 // aggregate value, meaningful only when Valid
	Valid   bool    // false when no record contributed to the aggregate
	Count   int     // number of records in the group
}

// AnalysisResult holds the output of one analysis, ready for printing
type AnalysisResult struct {
	ID      int
	Title   string
	KeyName string // label of the grouping column, empty for global results
	Column  string // label of the aggregate column
	Rows    []GroupStat
	Skipped bool
	Warning string
}

// ReviewedListing is one entry of the most-reviewed ranking
type ReviewedListing struct {
	Name    string
	Reviews int64
}

// HostListings is a host together with how many listings they own
type HostListings struct {
	HostID   string
	HostName string
	Listings int
}

// MarketOverview holds the host and booking statistics shown after the
// five core analyses
type MarketOverview struct {
	TotalListings   int
	ByRoomType      []GroupStat
	MostReviewed    []ReviewedListing
	DistinctHosts   int
	InstantBookable int
	BigHosts        []HostListings
	Superhosts      int
}

// InstantBookableShare returns the percentage of listings bookable instantly
func (m *MarketOverview) InstantBookableShare() float64 {
	return percent(m.InstantBookable, m.TotalListings)
}

// BigHostShare returns the percentage of hosts owning more than the big-host threshold
func (m *MarketOverview) BigHostShare() float64 {
	return percent(len(m.BigHosts), m.DistinctHosts)
}

// SuperhostShare returns the percentage of distinct hosts that are superhosts
func (m *MarketOverview) SuperhostShare() float64 {
	return percent(m.Superhosts, m.DistinctHosts)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Report is everything printed by a single run
type Report struct {
	Database      string
	Collection    string
	DocumentCount int64
	Analyses      []*AnalysisResult
	Overview      *MarketOverview
}
