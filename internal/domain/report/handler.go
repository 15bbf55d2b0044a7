package report

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medilab/lims/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "branch"))
	g.GET("/cases/:id/report", h.ComposeReport)
	g.GET("/report/settings", h.GetSettings)
	g.PUT("/report/settings", h.SaveSettings)
	g.GET("/report/letterhead", h.GetLetterhead)
	g.PUT("/report/letterhead", h.SaveLetterhead)
	g.GET("/report/signatures", h.ListSignatures)
	g.PUT("/report/signatures", h.SaveSignature)
	g.DELETE("/report/signatures/:id", h.DeleteSignature)
}

// RegisterPublicRoutes mounts the unauthenticated report-tracking endpoint.
func (h *Handler) RegisterPublicRoutes(e *echo.Echo) {
	e.GET("/public/reports/:regNo", h.PublicSummary)
}

func (h *Handler) ComposeReport(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc, err := h.svc.ComposeForCase(c.Request().Context(), caseID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) PublicSummary(c echo.Context) error {
	branchID := c.QueryParam("branch_id")
	if branchID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "branch_id is required")
	}
	summary, err := h.svc.PublicSummaryByRegNo(c.Request().Context(), branchID, c.Param("regNo"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetSettings(c echo.Context) error {
	settings, err := h.svc.GetSettings(c.Request().Context(), auth.BranchIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *Handler) SaveSettings(c echo.Context) error {
	var settings PrintSettings
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	settings.BranchID = auth.BranchIDFromContext(c.Request().Context())
	if err := h.svc.SaveSettings(c.Request().Context(), &settings); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, settings)
}

func (h *Handler) GetLetterhead(c echo.Context) error {
	lh, err := h.svc.GetLetterhead(c.Request().Context(), auth.BranchIDFromContext(c.Request().Context()))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "letterhead not configured")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, lh)
}

func (h *Handler) SaveLetterhead(c echo.Context) error {
	var lh Letterhead
	if err := c.Bind(&lh); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lh.BranchID = auth.BranchIDFromContext(c.Request().Context())
	if err := h.svc.SaveLetterhead(c.Request().Context(), &lh); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, lh)
}

func (h *Handler) ListSignatures(c echo.Context) error {
	sigs, err := h.svc.ListSignatures(c.Request().Context(), auth.BranchIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sigs)
}

func (h *Handler) SaveSignature(c echo.Context) error {
	var sig Signature
	if err := c.Bind(&sig); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sig.BranchID = auth.BranchIDFromContext(c.Request().Context())
	if err := h.svc.SaveSignature(c.Request().Context(), &sig); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sig)
}

func (h *Handler) DeleteSignature(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSignature(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "signature not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
