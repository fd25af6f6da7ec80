package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bin-option/internal/custom_err"
	"bin-option/internal/models"
)

type MockRates struct {
	mock.Mock
}

func (m *MockRates) StoreRates(ctx context.Context, pair models.Pair, rates []models.Rate) (int, error) {
	args := m.Called(ctx, pair, rates)
	return args.Int(0), args.Error(1)
}

type MockHistories struct {
	mock.Mock
}

func (m *MockHistories) CreateHistory(ctx context.Context, req models.HistoryRequest) (*models.HistoryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryResponse), args.Error(1)
}

type MockForecasts struct {
	mock.Mock
}

func (m *MockForecasts) GetForecast(ctx context.Context, rateID uuid.UUID, modelNo int) (models.ForecastOutcome, error) {
	args := m.Called(ctx, rateID, modelNo)
	return args.Get(0).(models.ForecastOutcome), args.Error(1)
}

func (m *MockForecasts) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func rateRouter(h *RateHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/rates/{pair}", h.PostRates)
	return r
}

func forecastRouter(h *ForecastHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/rates", h.PostRateHistory)
	r.Get("/forecast/after30min/{rateId}/{modelNo}", h.GetForecastAfter30Min)
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestRateHandler_PostRates_Success(t *testing.T) {
	svc := new(MockRates)
	body := `[{"time":"2022-05-01 12:00:00","value":130.1},{"time":"2022-05-01T12:01:00Z","value":130.2}]`

	svc.On("StoreRates", mock.Anything, models.PairUSDJPY, mock.MatchedBy(func(rates []models.Rate) bool {
		return len(rates) == 2 && rates[1].Time.Minute() == 1 && rates[0].Value == 130.1
	})).Return(2, nil)

	rec := serve(rateRouter(NewRateHandler(svc)), http.MethodPost, "/rates/USDJPY", body)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"count":2}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestRateHandler_PostRates_UnsupportedPairListsSupported(t *testing.T) {
	svc := new(MockRates)

	rec := serve(rateRouter(NewRateHandler(svc)), http.MethodPost, "/rates/EURUSD", `[]`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "currency pair is not supported, supported pairs: [USDJPY]", decodeMessage(t, rec))
}

func TestRateHandler_PostRates_Errors(t *testing.T) {
	tests := []struct {
		name       string
		pair       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{"unsupported pair", "EURUSD", `[{"time":"2022-05-01 12:00:00","value":1.1}]`, nil, http.StatusNotFound},
		{"malformed json", "USDJPY", `[{"time":`, nil, http.StatusBadRequest},
		{"bad time", "USDJPY", `[{"time":"yesterday","value":1.1}]`, nil, http.StatusBadRequest},
		{"duplicate time", "USDJPY", `[]`, custom_err.ErrDuplicateTime, http.StatusBadRequest},
		{"empty", "USDJPY", `[]`, custom_err.ErrInvalidInput, http.StatusBadRequest},
		{"persistence", "USDJPY", `[]`, custom_err.ErrPersistence, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockRates)
			if tt.svcErr != nil {
				svc.On("StoreRates", mock.Anything, mock.Anything, mock.Anything).
					Return(0, fmt.Errorf("service.StoreRates: %w", tt.svcErr))
			}

			rec := serve(rateRouter(NewRateHandler(svc)), http.MethodPost, "/rates/"+tt.pair, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, decodeMessage(t, rec))
			if tt.svcErr == nil {
				svc.AssertNotCalled(t, "StoreRates", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestForecastHandler_PostRateHistory(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		resp       *models.HistoryResponse
		svcErr     error
		wantStatus int
	}{
		{"created", `{"pair":"USDJPY","rate_histories":[110.1,110.2]}`, &models.HistoryResponse{RateID: "id", Expire: "2024-05-02 00:00:00"}, nil, http.StatusCreated},
		{"malformed", `{"pair":`, nil, nil, http.StatusBadRequest},
		{"unsupported pair", `{"pair":"EURUSD","rate_histories":[1.1]}`, nil, custom_err.ErrUnsupportedPair, http.StatusNotFound},
		{"empty", `{"pair":"USDJPY","rate_histories":[]}`, nil, custom_err.ErrEmptyHistories, http.StatusBadRequest},
		{"persistence", `{"pair":"USDJPY","rate_histories":[1.1]}`, nil, custom_err.ErrPersistence, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			histories := new(MockHistories)
			if tt.resp != nil || tt.svcErr != nil {
				histories.On("CreateHistory", mock.Anything, mock.Anything).Return(tt.resp, tt.svcErr)
			}

			rec := serve(forecastRouter(NewForecastHandler(histories, new(MockForecasts))), http.MethodPost, "/rates", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.resp != nil {
				assert.JSONEq(t, `{"rateId":"id","expire":"2024-05-02 00:00:00"}`, rec.Body.String())
			}
		})
	}
}

func TestForecastHandler_GetForecast(t *testing.T) {
	rateID := uuid.New()
	rate, rmse := 110.4213, 0.031

	tests := []struct {
		name       string
		path       string
		outcome    models.ForecastOutcome
		svcErr     error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "complete",
			path:       fmt.Sprintf("/forecast/after30min/%s/1", rateID),
			outcome:    models.ForecastOutcome{Complete: true, Rate: &rate, RMSE: &rmse},
			wantStatus: http.StatusOK,
			wantBody:   `{"result":{"complete":true,"rate":110.4213,"rmse":0.031}}`,
		},
		{
			name:       "pending",
			path:       fmt.Sprintf("/forecast/after30min/%s/1", rateID),
			outcome:    models.ForecastOutcome{},
			wantStatus: http.StatusOK,
			wantBody:   `{"result":{"complete":false}}`,
		},
		{
			name:       "history not found",
			path:       fmt.Sprintf("/forecast/after30min/%s/1", rateID),
			svcErr:     custom_err.ErrHistoryNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "model not found",
			path:       fmt.Sprintf("/forecast/after30min/%s/1", rateID),
			svcErr:     custom_err.ErrModelNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "recorded failure",
			path:       fmt.Sprintf("/forecast/after30min/%s/1", rateID),
			svcErr:     fmt.Errorf("service.GetForecast: %w", &custom_err.FailureError{Summary: "forecast computation failed"}),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"message":"forecast computation failed"}`,
		},
		{
			name:       "timeout",
			path:       fmt.Sprintf("/forecast/after30min/%s/1", rateID),
			svcErr:     custom_err.ErrTimeout,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unexpected",
			path:       fmt.Sprintf("/forecast/after30min/%s/1", rateID),
			svcErr:     errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecasts := new(MockForecasts)
			forecasts.On("GetForecast", mock.Anything, rateID, 1).Return(tt.outcome, tt.svcErr)

			rec := serve(forecastRouter(NewForecastHandler(new(MockHistories), forecasts)), http.MethodGet, tt.path, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestForecastHandler_GetForecast_BadPath(t *testing.T) {
	forecasts := new(MockForecasts)
	h := forecastRouter(NewForecastHandler(new(MockHistories), forecasts))

	for _, path := range []string{
		"/forecast/after30min/not-a-uuid/1",
		fmt.Sprintf("/forecast/after30min/%s/first", uuid.New()),
	} {
		rec := serve(h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	forecasts.AssertNotCalled(t, "GetForecast", mock.Anything, mock.Anything, mock.Anything)
}
