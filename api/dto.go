package api

import (
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
)

// isoLocalLayout renders history timestamps without zone, as local date-times.
const isoLocalLayout = "2006-01-02T15:04:05"

type PredictionRequest struct {
	Aerolinea    string   `json:"aerolinea" binding:"required,len=2,alpha" example:"AA"`
	Origen       string   `json:"origen" binding:"required,len=3,alpha" example:"SFO"`
	Destino      string   `json:"destino" binding:"required,len=3,alpha" example:"LAX"`
	FechaPartida *string  `json:"fechaPartida" binding:"required" example:"2026-12-25 14:30:00"`
	DistanciaKm  *float64 `json:"distanciaKm" binding:"required,gt=0,distance" example:"559.23"`
}

// toDomain parses the departure time in loc. The request must have passed
// binding validation.
func (r PredictionRequest) toDomain(loc *time.Location) (domain.PredictionRequest, error) {
	departure, err := time.ParseInLocation(domain.DateTimeLayout, *r.FechaPartida, loc)
	if err != nil {
		return domain.PredictionRequest{}, err
	}
	return domain.PredictionRequest{
		Airline:       r.Aerolinea,
		Origin:        r.Origen,
		Destination:   r.Destino,
		DepartureTime: departure,
		DistanceKm:    *r.DistanciaKm,
	}, nil
}

type HistoryItem struct {
	ID           int64   `json:"id" example:"1"`
	Aerolinea    string  `json:"aerolinea" example:"AA"`
	Origen       string  `json:"origen" example:"SFO"`
	Destino      string  `json:"destino" example:"LAX"`
	FechaPartida string  `json:"fechaPartida" example:"2026-12-25T14:30:00"`
	DistanciaKm  int     `json:"distanciaKm" example:"559"`
	Prevision    string  `json:"prevision" example:"A TIEMPO"`
	Probabilidad float64 `json:"probabilidad" example:"0.85"`
	CreatedAt    string  `json:"createdAt" example:"2026-10-17T10:30:00"`
	UpdatedAt    string  `json:"updatedAt" example:"2026-10-17T10:30:00"`
}

// newHistoryItem renders the record's times in loc.
func newHistoryItem(r domain.HistoryRecord, loc *time.Location) HistoryItem {
	return HistoryItem{
		ID:           r.ID,
		Aerolinea:    r.Airline,
		Origen:       r.Origin,
		Destino:      r.Destination,
		FechaPartida: r.DepartureTime.In(loc).Format(isoLocalLayout),
		DistanciaKm:  r.DistanceKm,
		Prevision:    r.Result.Label(),
		Probabilidad: r.Probability,
		CreatedAt:    r.CreatedAt.In(loc).Format(isoLocalLayout),
		UpdatedAt:    r.UpdatedAt.In(loc).Format(isoLocalLayout),
	}
}
