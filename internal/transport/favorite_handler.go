package transport

import (
	"net/http"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FavoriteHandler struct {
	favoriteService service.FavoriteService
	logger          *zap.Logger
}

func NewFavoriteHandler(favoriteService service.FavoriteService, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, logger: logger}
}

// RegisterRoutes registers the favorites routes
func (h *FavoriteHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/favorites", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/{productId}", h.Add)
		r.Delete("/{productId}", h.Remove)
	})
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	favorites, err := h.favoriteService.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "list favorites")
		return
	}
	if favorites == nil {
		favorites = []*domain.Favorite{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, favorites)
}

// Add marks a product as favorite; adding twice is not an error
func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	productID, err := uuidParam(r, "productId")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.favoriteService.Add(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.logger, err, "add favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	productID, err := uuidParam(r, "productId")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.favoriteService.Remove(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.logger, err, "remove favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
