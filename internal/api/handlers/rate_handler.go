package handlers

import (
	"bin-option/internal/api/middlew"
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"bin-option/internal/service"
	"bin-option/pkg/response"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func unsupportedPairMessage() string {
	return fmt.Sprintf("currency pair is not supported, supported pairs: %v", models.SupportedPairs())
}

type RateHandler struct {
	service service.Rates
}

func NewRateHandler(service service.Rates) *RateHandler {
	return &RateHandler{
		service: service,
	}
}

// PostRates godoc
// @Summary      Сохранить котировки
// @Description  Принимает массив котировок валютной пары и сохраняет их для обучения
// @Tags         rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        pair path string true "Валютная пара" Enums(USDJPY)
// @Param        request body []models.Rate true "Котировки"
// @Success      201 {object} models.PostRatesResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /rates/{pair} [post]
func (h *RateHandler) PostRates(w http.ResponseWriter, r *http.Request) {
	const op = "handler.PostRates"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	pair := models.Pair(chi.URLParam(r, "pair"))
	if !pair.IsValid() {
		log.Info("unsupported pair", slog.String("op", op), slog.String("pair", string(pair)))
		response.WriteJSONError(w, log, http.StatusNotFound, unsupportedPairMessage())
		return
	}

	var rates []models.Rate
	if err := json.NewDecoder(r.Body).Decode(&rates); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "parameter is invalid")
		return
	}

	count, err := h.service.StoreRates(r.Context(), pair, rates)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrUnsupportedPair):
			response.WriteJSONError(w, log, http.StatusNotFound, unsupportedPairMessage())
		case errors.Is(err, custom_err.ErrInvalidInput),
			errors.Is(err, custom_err.ErrInvalidTime),
			errors.Is(err, custom_err.ErrDuplicateTime):
			log.Warn("invalid rates", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusBadRequest, "parameter is invalid")
		default:
			log.Error("failed to store rates", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "failed to store rates")
		}
		return
	}

	log.Info("котировки сохранены",
		slog.String("op", op),
		slog.String("pair", string(pair)),
		slog.Int("count", count))

	response.WriteJSONSuccess(w, log, http.StatusCreated, models.PostRatesResponse{Count: count})
}
