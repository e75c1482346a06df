package handler

import (
	"net/http"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// DashboardHandler serves the farmer's sales overview
type DashboardHandler struct {
	dashboardService *service.DashboardService
	fail             api.ErrorWriter
}

func NewDashboardHandler(dashboardService *service.DashboardService, fail api.ErrorWriter) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, fail: fail}
}

// FarmerDashboard returns the caller's sales summary
func (h *DashboardHandler) FarmerDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardService.FarmerDashboard(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, dashboard)
}
