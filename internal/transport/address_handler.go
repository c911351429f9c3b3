package transport

import (
	"errors"
	"net/http"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/repository"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressRequest is the payload for creating or editing an address
type AddressRequest struct {
	CustomerDataRequest
	IsDefault bool `json:"isDefault"`
}

// AddressResponse carries one address or the user's address book
type AddressResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	Address   *domain.Address   `json:"address,omitempty"`
	Addresses []*domain.Address `json:"addresses,omitempty"`
}

// AddressHandler serves the user's address book
type AddressHandler struct {
	addressService service.AddressService
	logger         *zap.Logger
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addressService service.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addressService: addressService, logger: logger}
}

// RegisterRoutes registers the address routes
func (h *AddressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/addresses", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/default", h.SetDefault)
	})
}

// List returns the user's addresses, default first
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondStatus(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	addresses, err := h.addressService.List(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if addresses == nil {
		addresses = []*domain.Address{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, AddressResponse{Success: true, Addresses: addresses})
}

// Create adds an address to the user's address book
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondStatus(w, http.StatusUnauthorized, "Usuário não autenticado")
		return
	}

	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	address, err := h.addressService.Create(r.Context(), userID, in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, AddressResponse{
		Success: true,
		Message: "Endereço salvo com sucesso",
		Address: address,
	})
}

// Update edits one of the user's addresses
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, addressID, ok := h.target(w, r)
	if !ok {
		return
	}

	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	address, err := h.addressService.Update(r.Context(), userID, addressID, in)
	if err != nil {
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, AddressResponse{
		Success: true,
		Message: "Endereço atualizado com sucesso",
		Address: address,
	})
}

// Delete removes one of the user's addresses
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, addressID, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.addressService.Delete(r.Context(), userID, addressID); err != nil {
		h.respondError(w, err)
		return
	}

	respondStatus(w, http.StatusOK, "Endereço removido com sucesso")
}

// SetDefault makes the address the user's default
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID, addressID, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.addressService.SetDefault(r.Context(), userID, addressID); err != nil {
		h.respondError(w, err)
		return
	}

	respondStatus(w, http.StatusOK, "Endereço padrão atualizado")
}

func (h *AddressHandler) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondStatus(w, http.StatusUnauthorized, "Usuário não autenticado")
		return uuid.Nil, uuid.Nil, false
	}

	addressID, err := uuidParam(r, "id")
	if err != nil {
		respondStatus(w, http.StatusNotFound, "Endereço não encontrado")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, addressID, true
}

func (h *AddressHandler) decode(w http.ResponseWriter, r *http.Request) (service.AddressInput, bool) {
	var req AddressRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Address validation failed", zap.Error(err))
		respondStatus(w, http.StatusBadRequest, "Dados do endereço inválidos")
		return service.AddressInput{}, false
	}

	return service.AddressInput{
		CustomerData: req.CustomerDataRequest.toInput(),
		IsDefault:    req.IsDefault,
	}, true
}

func (h *AddressHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrAddressNotFound):
		respondStatus(w, http.StatusNotFound, "Endereço não encontrado")
	case errors.Is(err, service.ErrAddressRequired):
		respondStatus(w, http.StatusBadRequest, "Preencha rua, número, cidade, estado e CEP")
	default:
		h.logger.Error("Address operation failed", zap.Error(err))
		respondStatus(w, http.StatusInternalServerError, "Erro ao processar endereço")
	}
}
