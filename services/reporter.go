package services

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"listing-analytics/models"
)

const (
	reportWidth = 64
	maxBarWidth = 30
)

// Reporter prints reports as plain-text tables
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// PrintHeader prints the banner and the source summary
func (r *Reporter) PrintHeader(report *models.Report) {
	border := strings.Repeat("═", reportWidth)

	fmt.Fprintf(r.w, "\n╔%s╗\n", border)
	fmt.Fprintf(r.w, "║%s║\n", center("SHORT-TERM RENTAL LISTING ANALYTICS", reportWidth))
	fmt.Fprintf(r.w, "╚%s╝\n", border)
	fmt.Fprintf(r.w, "\n  Source     : %s.%s\n", report.Database, report.Collection)
	fmt.Fprintf(r.w, "  Documents  : %d\n", report.DocumentCount)
}

// PrintFooter closes the report
func (r *Reporter) PrintFooter() {
	fmt.Fprintf(r.w, "\n%s\n\n", strings.Repeat("═", reportWidth))
}

// PrintAnalysis prints one analysis block
func (r *Reporter) PrintAnalysis(a *models.AnalysisResult) {
	r.section(fmt.Sprintf("%d. %s", a.ID, a.Title))

	if a.Skipped {
		fmt.Fprintf(r.w, "  WARNING: %s, analysis skipped\n", a.Warning)
		return
	}

	if a.KeyName == "" {
		for _, row := range a.Rows {
			fmt.Fprintf(r.w, "  %s : %s\n", a.Column, formatValue(row))
		}
		return
	}

	if len(a.Rows) == 0 {
		fmt.Fprintf(r.w, "  (no rows)\n")
		return
	}

	fmt.Fprintf(r.w, "  %-32s %s\n", a.KeyName, a.Column)
	maxCount := 0
	for _, row := range a.Rows {
		if row.Count > maxCount {
			maxCount = row.Count
		}
	}
	for _, row := range a.Rows {
		line := fmt.Sprintf("  %-32s %s", truncate(formatKey(row), 32), formatValue(row))
		if isCountColumn(a.Column) {
			line += "  " + bar(row.Count, maxCount)
		}
		fmt.Fprintln(r.w, strings.TrimRight(line, " "))
	}
}

// PrintOverview prints the host and booking statistics
func (r *Reporter) PrintOverview(o *models.MarketOverview) {
	r.section("Listings per room type")
	for _, row := range o.ByRoomType {
		fmt.Fprintf(r.w, "  %-32s %d\n", truncate(formatKey(row), 32), row.Count)
	}

	r.section(fmt.Sprintf("Top %d most reviewed listings", mostReviewedLimit))
	if len(o.MostReviewed) == 0 {
		fmt.Fprintf(r.w, "  (no rows)\n")
	}
	for i, l := range o.MostReviewed {
		fmt.Fprintf(r.w, "  %d. %-45s %d\n", i+1, truncate(l.Name, 45), l.Reviews)
	}

	r.section("Hosts")
	fmt.Fprintf(r.w, "  Distinct hosts            : %d\n", o.DistinctHosts)

	r.section("Instantly bookable listings")
	fmt.Fprintf(r.w, "  Instantly bookable        : %d\n", o.InstantBookable)
	fmt.Fprintf(r.w, "  Share                     : %.2f%%\n", o.InstantBookableShare())

	r.section(fmt.Sprintf("Hosts with more than %d listings", bigHostThreshold))
	for _, h := range o.BigHosts {
		fmt.Fprintf(r.w, "  %s (%s) → %d listings\n", h.HostName, h.HostID, h.Listings)
	}
	fmt.Fprintf(r.w, "  Hosts over threshold      : %d\n", len(o.BigHosts))
	fmt.Fprintf(r.w, "  Share                     : %.2f%%\n", o.BigHostShare())

	r.section("Superhosts")
	fmt.Fprintf(r.w, "  Distinct superhosts       : %d\n", o.Superhosts)
	fmt.Fprintf(r.w, "  Share of hosts            : %.2f%%\n", o.SuperhostShare())
}

func (r *Reporter) section(title string) {
	fmt.Fprintf(r.w, "\n %s\n%s\n", strings.ToUpper(title), strings.Repeat("─", reportWidth))
}

func formatKey(row models.GroupStat) string {
	if row.KeyNull {
		return "null"
	}
	return row.Key
}

func formatValue(row models.GroupStat) string {
	if !row.Valid {
		return "null"
	}
	if row.Value == math.Trunc(row.Value) {
		return strconv.FormatFloat(row.Value, 'f', 0, 64)
	}
	return strconv.FormatFloat(row.Value, 'f', 4, 64)
}

func isCountColumn(label string) bool {
	return label == labelListings
}

func bar(n, max int) string {
	if max == 0 || n <= 0 {
		return ""
	}
	width := n * maxBarWidth / max
	if width == 0 {
		width = 1
	}
	return strings.Repeat("▓", width)
}

func center(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	pad := (width - len(runes)) / 2
	return strings.Repeat(" ", pad) + s + strings.Repeat(" ", width-len(runes)-pad)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
