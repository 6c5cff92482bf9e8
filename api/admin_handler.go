package api

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

type adminHandler struct {
	responder Responder
}

func newAdminHandler() adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()
	return adminHandler{responder: NewResponder(logger)}
}

// dashboard confirms the admin token
// @Summary Admin dashboard
// @Tags Admin
// @Produce json
// @Security AdminToken
// @Success 200 {object} Envelope "Welcome Admin Dashboard"
// @Failure 401 {object} Envelope "No token provided, authorization denied"
// @Failure 403 {object} Envelope "Invalid token, access denied"
// @Router /api/admin/dashboard [get]
func (h adminHandler) dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: "Welcome Admin Dashboard",
		})
	}
}
