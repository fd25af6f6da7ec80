package handlers

import (
	"bin-option/internal/api/middlew"
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"bin-option/internal/service"
	"bin-option/pkg/response"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ForecastHandler struct {
	histories service.Histories
	forecasts service.Forecasts
}

func NewForecastHandler(histories service.Histories, forecasts service.Forecasts) *ForecastHandler {
	return &ForecastHandler{
		histories: histories,
		forecasts: forecasts,
	}
}

// PostRateHistory godoc
// @Summary      Сохранить историю курса для прогноза
// @Description  Сохраняет ряд последних значений курса и возвращает его идентификатор и срок жизни
// @Tags         forecast
// @Accept       json
// @Produce      json
// @Param        request body models.HistoryRequest true "История курса"
// @Success      201 {object} models.HistoryResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /rates [post]
func (h *ForecastHandler) PostRateHistory(w http.ResponseWriter, r *http.Request) {
	const op = "handler.PostRateHistory"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	var req models.HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "parameter is invalid")
		return
	}

	resp, err := h.histories.CreateHistory(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrUnsupportedPair):
			response.WriteJSONError(w, log, http.StatusNotFound, unsupportedPairMessage())
		case errors.Is(err, custom_err.ErrEmptyHistories), errors.Is(err, custom_err.ErrInvalidInput):
			log.Warn("invalid histories", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusBadRequest, "parameter is invalid")
		default:
			log.Error("failed to store rate history", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "failed to store rate history")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusCreated, resp)
}

// GetForecastAfter30Min godoc
// @Summary      Получить прогноз через 30 минут
// @Description  Возвращает прогноз для сохраненной истории. Пока расчет не завершен, complete=false
// @Tags         forecast
// @Produce      json
// @Param        rateId  path string true "Идентификатор истории" format(uuid)
// @Param        modelNo path int    true "Номер модели"
// @Success      200 {object} models.ForecastResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /forecast/after30min/{rateId}/{modelNo} [get]
func (h *ForecastHandler) GetForecastAfter30Min(w http.ResponseWriter, r *http.Request) {
	const op = "handler.GetForecastAfter30Min"
	log := middlew.GetLogger(r.Context())

	rateID, err := uuid.Parse(chi.URLParam(r, "rateId"))
	if err != nil {
		response.WriteJSONError(w, log, http.StatusNotFound, "rate history not found")
		return
	}
	modelNo, err := strconv.Atoi(chi.URLParam(r, "modelNo"))
	if err != nil {
		response.WriteJSONError(w, log, http.StatusNotFound, "forecast model not found")
		return
	}

	outcome, err := h.forecasts.GetForecast(r.Context(), rateID, modelNo)
	if err != nil {
		var failure *custom_err.FailureError
		switch {
		case errors.Is(err, custom_err.ErrHistoryNotFound), errors.Is(err, custom_err.ErrNotFound):
			response.WriteJSONError(w, log, http.StatusNotFound, "rate history not found")
		case errors.Is(err, custom_err.ErrModelNotFound):
			response.WriteJSONError(w, log, http.StatusNotFound, "forecast model not found")
		case errors.As(err, &failure):
			log.Warn("forecast failed", slog.String("op", op), slog.String("summary", failure.Summary))
			response.WriteJSONError(w, log, http.StatusInternalServerError, failure.Summary)
		case errors.Is(err, custom_err.ErrTimeout):
			log.Error("forecast timed out", slog.String("op", op), slog.String("rate_id", rateID.String()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "forecast timed out")
		default:
			log.Error("failed to get forecast", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "failed to get forecast")
		}
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, models.ForecastResponse{Result: outcome})
}
