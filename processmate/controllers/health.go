package controllers

import (
	"net/http"

	"processmate/processmate/types"
	httputils "processmate/processmate/utils/http"
)

type HealthController struct {
	mode types.Mode
}

func NewHealthController(mode types.Mode) *HealthController {
	return &HealthController{mode: mode}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputils.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   string(h.mode),
	})
}
