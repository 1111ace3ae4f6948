package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredictionResult_RoundTrip(t *testing.T) {
	for _, r := range []PredictionResult{PredictionOnTime, PredictionDelayed} {
		parsed, ok := ParsePredictionResult(r.Label())
		assert.True(t, ok)
		assert.Equal(t, r, parsed)
	}
	assert.Equal(t, "A TIEMPO", PredictionOnTime.Label())
	assert.Equal(t, "RETRASADO", PredictionDelayed.Label())
}

func TestParsePredictionResult_CaseAndSpace(t *testing.T) {
	for _, label := range []string{"a tiempo", "  A  TIEMPO ", "A\tTiempo", "ATIEMPO"} {
		r, ok := ParsePredictionResult(label)
		assert.True(t, ok, label)
		assert.Equal(t, PredictionOnTime, r, label)
	}

	r, ok := ParsePredictionResult(" retrasado ")
	assert.True(t, ok)
	assert.Equal(t, PredictionDelayed, r)
}

// Unknown labels silently become DELAYED. This masks contract violations from
// the model; callers are expected to log ok == false.
func TestParsePredictionResult_UnknownFallsBackToDelayed(t *testing.T) {
	for _, label := range []string{"", "ON_TIME", "PUNTUAL", "delayed"} {
		r, ok := ParsePredictionResult(label)
		assert.False(t, ok, label)
		assert.Equal(t, PredictionDelayed, r, label)
	}
}

func TestPredictionRequest_Normalize(t *testing.T) {
	req := PredictionRequest{Airline: " aa", Origin: "sfo ", Destination: "lAx", DistanceKm: 559.23}
	n := req.Normalize()

	assert.Equal(t, "AA", n.Airline)
	assert.Equal(t, "SFO", n.Origin)
	assert.Equal(t, "LAX", n.Destination)
	assert.Equal(t, 559.23, n.DistanceKm)
	assert.Equal(t, " aa", req.Airline)
}

func TestErrorKind_StatusAndCode(t *testing.T) {
	cases := []struct {
		kind   ErrorKind
		status int
		code   string
	}{
		{KindValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{KindInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{KindCatalogUnavailable, http.StatusInternalServerError, "CATALOG_UNAVAILABLE"},
		{KindModelUnprocessable, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{KindModelClient, http.StatusInternalServerError, "MODEL_CLIENT_ERROR"},
		{KindModelServer, http.StatusInternalServerError, "MODEL_SERVER_ERROR"},
		{KindModelUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{KindUnexpected, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.kind.HTTPStatus(), tc.code)
		assert.Equal(t, tc.code, tc.kind.Code())
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", NewError(KindModelServer, "internal error in prediction model", cause))

	assert.Equal(t, KindModelServer, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindModelServer))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindUnexpected, KindOf(cause))
	assert.Equal(t, "unknown airline ZZ", ValidationError("unknown airline ZZ").Error())
}
