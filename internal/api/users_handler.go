package api

import (
	"net/http"

	"judgecore/internal/services"
	"judgecore/pkg/types"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(us *services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.saveUser)
	r.Get("/", h.listUsers)
}

func (h *UserHandler) saveUser(w http.ResponseWriter, r *http.Request) {
	var req types.PostUserRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondWithError(w, r, err)
		return
	}

	user, err := h.userService.Save(r.Context(), &req)
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		RespondWithError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, users)
}
