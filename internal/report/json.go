package report

import (
	"encoding/json"
	"io"
	"math"

	"gocorr/domain/correlation"
)

// jsonRow mirrors TestResult with NA as null
type jsonRow struct {
	Parameter1     string   `json:"Parameter1"`
	Parameter2     string   `json:"Parameter2"`
	Group          string   `json:"Group,omitempty"`
	Estimate       *float64 `json:"Estimate"`
	EstimateName   string   `json:"Estimate_Name"`
	CI             float64  `json:"CI"`
	CILow          *float64 `json:"CI_low"`
	CIHigh         *float64 `json:"CI_high"`
	Statistic      *float64 `json:"Statistic,omitempty"`
	StatisticName  string   `json:"Statistic_Name,omitempty"`
	DF             *float64 `json:"df_error,omitempty"`
	P              *float64 `json:"p,omitempty"`
	PD             *float64 `json:"pd,omitempty"`
	ROPEPercentage *float64 `json:"ROPE_Percentage,omitempty"`
	BF10           *float64 `json:"BF,omitempty"`
	PriorName      string   `json:"Prior_Distribution,omitempty"`
	PriorLocation  *float64 `json:"Prior_Location,omitempty"`
	PriorScale     *float64 `json:"Prior_Scale,omitempty"`
	Method         string   `json:"Method"`
	NObs           int      `json:"n_Obs"`
	ErrorKind      string   `json:"Error,omitempty"`
	Note           string   `json:"Note,omitempty"`
}

type jsonTable struct {
	RunID            string                 `json:"run_id,omitempty"`
	Fingerprint      string                 `json:"fingerprint,omitempty"`
	Method           string                 `json:"method"`
	PAdjust          string                 `json:"p_adjust"`
	Groups           []string               `json:"groups"`
	Variables        []string               `json:"variables"`
	PartialConverted bool                   `json:"partial_converted,omitempty"`
	ZeroOrder        map[string][][]float64 `json:"zero_order,omitempty"`
	Rows             []jsonRow              `json:"rows"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// JSON writes the table with NA values as null
func JSON(w io.Writer, t *correlation.Table) error {
	out := jsonTable{
		Method:           t.Options.Method.String(),
		PAdjust:          string(t.Options.PAdjust),
		Groups:           t.Groups,
		Variables:        t.Variables,
		PartialConverted: t.PartialConverted,
		ZeroOrder:        t.ZeroOrder,
		Rows:             make([]jsonRow, 0, len(t.Rows)),
	}
	if t.RunID != "" {
		out.RunID = t.RunID.String()
	}
	if !t.Fingerprint.IsEmpty() {
		out.Fingerprint = t.Fingerprint.String()
	}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, jsonRow{
			Parameter1:     r.Parameter1,
			Parameter2:     r.Parameter2,
			Group:          r.Group,
			Estimate:       nullable(r.Estimate),
			EstimateName:   r.EstimateName,
			CI:             r.CI,
			CILow:          nullable(r.CILow),
			CIHigh:         nullable(r.CIHigh),
			Statistic:      nullable(r.Statistic),
			StatisticName:  r.StatisticName,
			DF:             nullable(r.DF),
			P:              nullable(r.P),
			PD:             nullable(r.PD),
			ROPEPercentage: nullable(r.ROPEPercentage),
			BF10:           nullable(r.BF10),
			PriorName:      r.PriorName,
			PriorLocation:  nullable(r.PriorLocation),
			PriorScale:     nullable(r.PriorScale),
			Method:         r.Method,
			NObs:           r.NObs,
			ErrorKind:      string(r.ErrorKind),
			Note:           r.Note,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
