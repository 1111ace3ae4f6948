package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/Domenick1991/flightontime/internal/service/history"
	"github.com/Domenick1991/flightontime/internal/service/prediction"
	"github.com/gin-gonic/gin"
)

type PredictionHandler struct {
	predictions prediction.PredictionUseCase
	history     history.HistoryUseCase
	now         func() time.Time
	location    *time.Location
}

type HandlerOption func(*PredictionHandler)

// WithClock replaces time.Now for error timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *PredictionHandler) {
		h.now = now
	}
}

// WithLocation sets the zone departure times are read and rendered in.
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *PredictionHandler) {
		h.location = loc
	}
}

func NewPredictionHandler(predictions prediction.PredictionUseCase, history history.HistoryUseCase, opts ...HandlerOption) *PredictionHandler {
	registerValidators()
	h := &PredictionHandler{
		predictions: predictions,
		history:     history,
		now:         time.Now,
		location:    time.Local,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *PredictionHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.predict)
	router.GET("/history", h.listHistory)
	router.GET("/ping", h.ping)
}

// predict godoc
// @Summary      Predict flight delay
// @Description  Codes are case-insensitive. fechaPartida uses yyyy-MM-dd HH:mm:ss.
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Param        request  body      PredictionRequest  true  "Flight data"
// @Success      200      {object}  domain.PredictionResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      422      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /predict [post]
func (h *PredictionHandler) predict(c *gin.Context) {
	var req PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	input, err := req.toDomain(h.location)
	if err != nil {
		h.writeError(c, dateError(err))
		return
	}

	resp, err := h.predictions.Predict(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// listHistory godoc
// @Summary      Prediction history
// @Description  Every stored prediction, newest first.
// @Tags         predictions
// @Produce      json
// @Success      200  {array}   HistoryItem
// @Failure      500  {object}  ErrorResponse
// @Router       /predict/history [get]
func (h *PredictionHandler) listHistory(c *gin.Context) {
	records, err := h.history.FindAll(c.Request.Context())
	if err != nil {
		h.writeError(c, domain.NewError(domain.KindUnexpected, "failed to load prediction history", err))
		return
	}

	items := make([]HistoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, newHistoryItem(r, h.location))
	}
	c.JSON(http.StatusOK, items)
}

// ping godoc
// @Summary  Health check
// @Tags     predictions
// @Produce  plain
// @Success  200  {string}  string  "OK"
// @Router   /predict/ping [get]
func (h *PredictionHandler) ping(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *PredictionHandler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := newErrorResponse(c, h.now(), err)
	c.AbortWithStatusJSON(status, body)
}
