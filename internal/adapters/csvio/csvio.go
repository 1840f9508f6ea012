// Package csvio reads and writes rating tables as CSV.
//
// Input headers are matched case-insensitively against the raw export
// names (organization, rating, num_reviews) and the cleaned names
// (Organization, Rating, NumberReview). Values are stripped of quotes and
// surrounding whitespace; rows whose rating or review count cannot be
// parsed are skipped and reported.
//
// Scores are written at full precision unless WithScorePrecision is given.
// Rounding applies to the output only: ranking always compares unrounded
// scores, so records whose rounded scores are equal keep the order their
// exact scores gave them.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/rankr/internal/domain/model"
	"github.com/okian/rankr/pkg/logger"
	"github.com/okian/rankr/pkg/metrics"
)

const (
	ctxCheckEvery = 4096
	maxWarnings   = 20
)

// Skip reasons reported in Report.Skipped.
const (
	SkipBadRating = "bad_rating"
	SkipBadVotes  = "bad_votes"
	SkipShortRow  = "short_row"
	SkipNoName    = "no_name"
)

// Output column names.
const (
	ColumnPosition = "Position"
	ColumnName     = "Organization"
	ColumnRating   = "Rating"
	ColumnVotes    = "NumberReview"
	ColumnScore    = "ConfidenceScore"
)

var (
	nameAliases   = []string{"organization", "name", "org"}
	ratingAliases = []string{"rating"}
	votesAliases  = []string{"num_reviews", "numberreview", "number_review", "votes", "reviews", "review_count"}
	scoreAliases  = []string{"confidencescore", "puntuacionconfianza", "puntuacion_total", "puntuacion", "score", "confidence"}
)

// Report summarizes a read.
type Report struct {
	Rows     int
	Accepted int
	Skipped  map[string]int
	Warnings []string
}

// SkippedTotal returns the number of skipped rows.
func (r Report) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

type reader struct {
	maxRecords int
	logger     logger.Logger
}

type columns struct {
	name, rating, votes, score int
}

// Read parses records from src. Rows that fail cleaning are skipped and
// counted in the report; structural problems (missing header columns,
// malformed CSV, too many records) fail the read.
func Read(ctx context.Context, src io.Reader, opts ...Option) ([]model.Record, Report, error) {
	rd := &reader{}
	for _, opt := range opts {
		opt(rd)
	}
	if rd.logger == nil {
		rd.logger = logger.Get().Named("csvio")
	}

	report := Report{Skipped: make(map[string]int)}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, ErrEmptyInput
	}
	if err != nil {
		return nil, report, fmt.Errorf("read header: %w", err)
	}
	cols, err := locate(header)
	if err != nil {
		return nil, report, err
	}

	var records []model.Record
	for line := 2; ; line++ {
		if report.Rows%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, fmt.Errorf("read cancelled: %w", err)
			}
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("line %d: %w", line, err)
		}
		report.Rows++

		rec, reason := rd.parse(row, cols)
		if reason != "" {
			rd.skip(ctx, &report, line, reason)
			continue
		}
		if rd.maxRecords > 0 && len(records) >= rd.maxRecords {
			return nil, report, fmt.Errorf("%w: limit is %d", ErrTooManyRecords, rd.maxRecords)
		}
		records = append(records, rec)
	}

	report.Accepted = len(records)
	metrics.RecordCSVRowsRead(report.Accepted)
	if records == nil {
		records = []model.Record{}
	}
	return records, report, nil
}

func (rd *reader) parse(row []string, cols columns) (model.Record, string) {
	need := max(cols.name, cols.rating, cols.votes)
	if len(row) <= need {
		return model.Record{}, SkipShortRow
	}

	name := clean(row[cols.name])
	if name == "" {
		return model.Record{}, SkipNoName
	}
	rating, err := strconv.ParseFloat(clean(row[cols.rating]), 64)
	if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
		return model.Record{}, SkipBadRating
	}
	votesF, err := strconv.ParseFloat(clean(row[cols.votes]), 64)
	if err != nil || votesF < 0 || votesF != math.Trunc(votesF) || votesF > math.MaxInt32 {
		return model.Record{}, SkipBadVotes
	}

	rec := model.Record{Name: name, Rating: rating, Votes: int(votesF)}
	if cols.score >= 0 && cols.score < len(row) {
		if score, err := strconv.ParseFloat(clean(row[cols.score]), 64); err == nil && !math.IsNaN(score) {
			rec.Score = score
			rec.Scored = true
		}
	}
	return rec, ""
}

func (rd *reader) skip(ctx context.Context, report *Report, line int, reason string) {
	report.Skipped[reason]++
	metrics.RecordCSVRowSkipped(reason)
	if len(report.Warnings) < maxWarnings {
		msg := fmt.Sprintf("line %d skipped: %s", line, reason)
		report.Warnings = append(report.Warnings, msg)
		rd.logger.Warn(ctx, "csv row skipped", logger.Int("line", line), logger.String("reason", reason))
	}
}

func locate(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(clean(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	find := func(aliases []string) int {
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				return i
			}
		}
		return -1
	}

	cols := columns{
		name:   find(nameAliases),
		rating: find(ratingAliases),
		votes:  find(votesAliases),
		score:  find(scoreAliases),
	}
	var missing []string
	if cols.name < 0 {
		missing = append(missing, "organization")
	}
	if cols.rating < 0 {
		missing = append(missing, "rating")
	}
	if cols.votes < 0 {
		missing = append(missing, "num_reviews")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

// clean strips double quotes and surrounding whitespace.
func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// Write emits records in order with a 1-based position column. The score
// column is included when withScore is set.
func Write(ctx context.Context, dst io.Writer, records []model.Record, withScore bool, opts ...WriteOption) error {
	cfg := writer{scorePrecision: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	w := csv.NewWriter(dst)

	header := []string{ColumnPosition, ColumnName, ColumnRating, ColumnVotes}
	if withScore {
		header = append(header, ColumnScore)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	for i := range records {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("write cancelled: %w", err)
			}
		}
		r := &records[i]
		row[0] = strconv.Itoa(i + 1)
		row[1] = r.Name
		row[2] = strconv.FormatFloat(r.Rating, 'f', -1, 64)
		row[3] = strconv.Itoa(r.Votes)
		if withScore {
			row[4] = strconv.FormatFloat(r.Score, 'f', cfg.scorePrecision, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	return w.Error()
}
