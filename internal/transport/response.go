package transport

import (
	"errors"
	"net/http"
	"strconv"

	"butcher-shop/internal/middleware"
	"butcher-shop/internal/repository"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatusResponse is the envelope used by the checkout and address endpoints
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func respondStatus(w http.ResponseWriter, statusCode int, message string) {
	middleware.RespondWithJSON(w, statusCode, StatusResponse{
		Success: statusCode < http.StatusBadRequest,
		Message: message,
	})
}

// PageResponse wraps a paginated listing
type PageResponse struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// requireUser reads the authenticated user; it answers 401 when there is none
func requireUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// uuidParam parses a chi URL parameter
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// pageParams reads page and pageSize; the repositories clamp them
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}

// formatMoney renders an amount as "R$ 10.00"
func formatMoney(amount decimal.Decimal) string {
	return "R$ " + amount.StringFixed(2)
}

// respondServiceError maps service and repository errors for the endpoints
// that use the structured error body
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrCartItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrAddressNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrCategoryAlreadyExists),
		errors.Is(err, repository.ErrUserAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidQuantity),
		errors.Is(err, repository.ErrUnknownCategory),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrInvalidStatus):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Request failed", zap.String("action", action), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
