package forms

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"github.com/mbolis/quick-form/model"
)

type Analytics struct {
	Total          int64   `json:"total_responses"`
	Completed      int64   `json:"completed_responses"`
	Disqualified   int64   `json:"disqualified_responses"`
	Clicks         int64   `json:"clicks"`
	CompletionRate float64 `json:"completion_rate"`
}

func (s *Service) Analytics(ctx context.Context, formID string) (*Analytics, error) {
	if _, err := s.store.GetForm(ctx, formID); err != nil {
		return nil, notFound(err)
	}

	stats, err := s.store.ResponseStats(ctx, formID)
	if err != nil {
		return nil, err
	}
	clicks, err := s.clicks.Count(ctx, formID)
	if err != nil {
		return nil, err
	}

	a := &Analytics{
		Total:        stats.Total,
		Completed:    stats.Completed,
		Disqualified: stats.Disqualified,
		Clicks:       clicks,
	}
	if stats.Total > 0 {
		a.CompletionRate = float64(stats.Completed) / float64(stats.Total)
	}
	return a, nil
}

// ExportCSV writes one row per response with a column for every current
// field. Answers to removed fields are not exported.
func (s *Service) ExportCSV(ctx context.Context, formID string, w io.Writer) error {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return notFound(err)
	}
	responses, err := s.store.ListResponses(ctx, formID)
	if err != nil {
		return err
	}

	fields := model.SortFields(form.Fields)
	header := []string{"Submitted At", "Status", "Email", "Disqualified By"}
	for _, f := range fields {
		header = append(header, f.Label)
	}

	out := csv.NewWriter(w)
	if err := out.Write(header); err != nil {
		return err
	}

	for _, r := range responses {
		values := make(map[string]string, len(r.Fields))
		for _, rf := range r.Fields {
			if rf.Value != nil {
				values[rf.FieldID] = rf.Value.Text()
			}
		}

		row := []string{r.SubmittedAt.UTC().Format(time.RFC3339), string(r.Status), r.RespondentEmail, r.DisqualifiedBy}
		for _, f := range fields {
			row = append(row, values[f.ID])
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}
