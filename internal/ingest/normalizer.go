package ingest

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

type IssueKind string

const (
	IssueMissingID      IssueKind = "missing_id"
	IssueDuplicateID    IssueKind = "duplicate_id"
	IssueUnknownFactor  IssueKind = "unknown_factor"
	IssueDuplicateScore IssueKind = "duplicate_factor"
	IssueNotFinite      IssueKind = "not_finite"
	IssueClamped        IssueKind = "clamped"
	IssueMissingFactor  IssueKind = "missing_factor"
	IssueInvalidScore   IssueKind = "invalid_score"
	IssueMalformed      IssueKind = "malformed"
)

// Issue is one anomaly found while normalizing a batch.
type Issue struct {
	CountryID string    `json:"country_id,omitempty"`
	Factor    string    `json:"factor,omitempty"`
	Kind      IssueKind `json:"kind"`
	Message   string    `json:"message"`
	Index     int       `json:"index"`
	Fatal     bool      `json:"fatal"`
}

func (i Issue) Error() string {
	if i.CountryID == "" {
		return fmt.Sprintf("country #%d: %s", i.Index, i.Message)
	}
	if i.Factor != "" {
		return fmt.Sprintf("%s.%s: %s", i.CountryID, i.Factor, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.CountryID, i.Message)
}

// Report summarizes a Normalize run.
type Report struct {
	Accepted int     `json:"accepted"`
	Rejected int     `json:"rejected"`
	Issues   []Issue `json:"issues"`
}

// Err returns every issue combined into one error, or nil when the batch was
// clean.
func (r Report) Err() error {
	var result *multierror.Error
	for _, issue := range r.Issues {
		result = multierror.Append(result, issue)
	}
	return result.ErrorOrNil()
}

// Count returns the number of issues of the given kind.
func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// Normalizer validates raw country batches and maps them onto the 0–10 score
// scale.
type Normalizer struct {
	// Scale is the maximum of the source scale, either 10 or 100.
	Scale float64
	Now   func() time.Time
}

func NewNormalizer(scale float64) *Normalizer {
	if scale <= 0 {
		scale = scoring.MaxScore
	}
	return &Normalizer{Scale: scale, Now: time.Now}
}

// Normalize converts raw countries into records. Records are returned in
// input order; a repeated id replaces the earlier record in place.
func (n *Normalizer) Normalize(raw []RawCountry) ([]scoring.CountryRecord, Report) {
	var report Report
	now := time.Now().UTC()
	if n.Now != nil {
		now = n.Now().UTC()
	}

	records := make([]scoring.CountryRecord, 0, len(raw))
	positions := make(map[string]int, len(raw))

	for i, rc := range raw {
		id := strings.TrimSpace(rc.ID)
		if rc.Malformed != "" {
			report.Rejected++
			report.Issues = append(report.Issues, Issue{
				CountryID: id,
				Index:     i,
				Kind:      IssueMalformed,
				Message:   "country could not be decoded: " + rc.Malformed,
				Fatal:     true,
			})
			continue
		}
		if id == "" {
			report.Rejected++
			report.Issues = append(report.Issues, Issue{
				Index:   i,
				Kind:    IssueMissingID,
				Message: "country has no id",
				Fatal:   true,
			})
			continue
		}

		rec := scoring.CountryRecord{
			ID:        id,
			Name:      strings.TrimSpace(rc.Name),
			Code:      strings.ToUpper(strings.TrimSpace(rc.Code)),
			Scores:    make(map[scoring.Factor]float64, len(rc.Scores)),
			UpdatedAt: now,
		}
		if rec.Name == "" {
			rec.Name = id
		}

		report.Issues = append(report.Issues, n.normalizeScores(i, id, rc, rec.Scores)...)

		if pos, seen := positions[id]; seen {
			report.Issues = append(report.Issues, Issue{
				CountryID: id,
				Index:     i,
				Kind:      IssueDuplicateID,
				Message:   fmt.Sprintf("duplicate id, replaces entry #%d", pos),
			})
			records[pos] = rec
			continue
		}
		positions[id] = len(records)
		records = append(records, rec)
	}

	report.Accepted = len(records)
	return records, report
}

func (n *Normalizer) normalizeScores(index int, id string, rc RawCountry, out map[scoring.Factor]float64) []Issue {
	var issues []Issue

	keys := make([]string, 0, len(rc.Scores)+len(rc.Invalid))
	for k := range rc.Scores {
		keys = append(keys, k)
	}
	for k := range rc.Invalid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		factor, ok := ParseFactor(key)
		if !ok {
			issues = append(issues, Issue{CountryID: id, Factor: key, Index: index, Kind: IssueUnknownFactor, Message: "unknown factor dropped"})
			continue
		}
		if reason, bad := rc.Invalid[key]; bad {
			issues = append(issues, Issue{CountryID: id, Factor: key, Index: index, Kind: IssueInvalidScore, Message: "unreadable score dropped: " + reason})
			continue
		}

		v := float64(rc.Scores[key])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			issues = append(issues, Issue{CountryID: id, Factor: key, Index: index, Kind: IssueNotFinite, Message: "score is not a finite number, dropped"})
			continue
		}
		if n.Scale != scoring.MaxScore {
			v = v / n.Scale * scoring.MaxScore
		}
		if v < scoring.MinScore || v > scoring.MaxScore {
			clamped := math.Max(scoring.MinScore, math.Min(v, scoring.MaxScore))
			issues = append(issues, Issue{
				CountryID: id,
				Factor:    key,
				Index:     index,
				Kind:      IssueClamped,
				Message:   fmt.Sprintf("score %g out of range, clamped to %g", v, clamped),
			})
			v = clamped
		}

		if _, dup := out[factor]; dup {
			issues = append(issues, Issue{CountryID: id, Factor: key, Index: index, Kind: IssueDuplicateScore, Message: fmt.Sprintf("%s reported twice, last value kept", factor)})
		}
		out[factor] = v
	}

	for _, f := range scoring.Factors() {
		if _, ok := out[f]; !ok {
			issues = append(issues, Issue{CountryID: id, Factor: string(f), Index: index, Kind: IssueMissingFactor, Message: "no score, excluded from the total"})
		}
	}
	return issues
}
