package domain

import (
	"strings"
	"time"
)

// DateTimeLayout is the wire layout for departure times, inbound and outbound.
const DateTimeLayout = "2006-01-02 15:04:05"

type PredictionResult string

const (
	PredictionOnTime  PredictionResult = "ON_TIME"
	PredictionDelayed PredictionResult = "DELAYED"
)

const (
	LabelOnTime  = "A TIEMPO"
	LabelDelayed = "RETRASADO"
)

// Label returns the canonical external representation of the result.
func (r PredictionResult) Label() string {
	if r == PredictionOnTime {
		return LabelOnTime
	}
	return LabelDelayed
}

// ParsePredictionResult maps an external label to a result. Case and
// whitespace are ignored. ok is false when the label is not recognized, in
// which case the returned result is PredictionDelayed.
func ParsePredictionResult(label string) (result PredictionResult, ok bool) {
	switch strings.ToUpper(strings.Join(strings.Fields(label), "")) {
	case "ATIEMPO":
		return PredictionOnTime, true
	case LabelDelayed:
		return PredictionDelayed, true
	default:
		return PredictionDelayed, false
	}
}

type PredictionRequest struct {
	Airline       string
	Origin        string
	Destination   string
	DepartureTime time.Time
	DistanceKm    float64
}

// Normalize returns a copy with trimmed, upper-cased codes.
func (r PredictionRequest) Normalize() PredictionRequest {
	r.Airline = normalizeCode(r.Airline)
	r.Origin = normalizeCode(r.Origin)
	r.Destination = normalizeCode(r.Destination)
	return r
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type PredictionResponse struct {
	Prevision    string  `json:"prevision"`
	Probabilidad float64 `json:"probabilidad"`
}

type HistoryRecord struct {
	ID            int64
	Airline       string
	Origin        string
	Destination   string
	DepartureTime time.Time
	DistanceKm    int
	Result        PredictionResult
	Probability   float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
