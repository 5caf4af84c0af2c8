package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/triketime/internal/middleware/auth"
	"github.com/Skotchmaster/triketime/internal/service"
)

type ShiftHTTP struct {
	Svc *service.ShiftService
}

func caller(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, apiError(http.StatusUnauthorized, "no_token")
	}
	return id, nil
}

func (h *ShiftHTTP) StartShift(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	shift, err := h.Svc.StartShift(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, "start_shift", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":     "started",
		"id":         shift.ID,
		"start_time": service.FormatTimestamp(shift.StartTime),
	})
}

func (h *ShiftHTTP) StopShift(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	shift, err := h.Svc.StopShift(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, "stop_shift", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   "ended",
		"id":       shift.ID,
		"end_time": service.FormatTimestamp(*shift.EndTime),
	})
}

func (h *ShiftHTTP) CurrentShift(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	shift, err := h.Svc.OpenShift(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, "current_shift", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"shift": toShiftDTO(shift)})
}

func (h *ShiftHTTP) StartActivity(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	var req struct {
		Activity string `json:"activity"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(http.StatusBadRequest, "invalid_body")
	}

	activity, err := h.Svc.StartActivity(c.Request().Context(), id.UserID, req.Activity)
	if err != nil {
		return fail(c, "start_activity", err)
	}
	return c.JSON(http.StatusCreated, toActivityDTO(activity))
}

func (h *ShiftHTTP) StopActivity(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	activity, err := h.Svc.StopActivity(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, "stop_activity", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "stopped", "id": activity.ID})
}

func (h *ShiftHTTP) CurrentActivity(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	activity, err := h.Svc.ActiveActivity(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, "current_activity", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": toActivityDTO(activity)})
}

func (h *ShiftHTTP) History(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			logFor(c, "history").Warn("history_failed", "status", 422, "reason", "bad limit", "limit", raw)
			return apiError(http.StatusUnprocessableEntity, "validation")
		}
	}

	shifts := h.Svc.ListHistory(c.Request().Context(), id.UserID, limit)
	return c.JSON(http.StatusOK, toShiftDTOs(shifts))
}

func (h *ShiftHTTP) ClearHistory(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	deleted, err := h.Svc.ClearHistory(c.Request().Context(), id.UserID)
	if err != nil {
		return fail(c, "clear_history", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "deleted": deleted})
}

type sessionRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

func (h *ShiftHTTP) CreateSession(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return apiError(http.StatusBadRequest, "invalid_body")
	}
	if req.StartTime == nil {
		return apiError(http.StatusUnprocessableEntity, "invalid_timestamp")
	}
	end := ""
	if req.EndTime != nil {
		end = *req.EndTime
	}

	shift, err := h.Svc.CreateSession(c.Request().Context(), id.UserID, *req.StartTime, end)
	if err != nil {
		return fail(c, "create_session", err)
	}
	return c.JSON(http.StatusCreated, toShiftDTO(shift))
}

func (h *ShiftHTTP) UpdateSession(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}

	shiftID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apiError(http.StatusNotFound, "not_found")
	}

	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return apiError(http.StatusBadRequest, "invalid_body")
	}

	shift, err := h.Svc.UpdateSession(c.Request().Context(), id.UserID, uint(shiftID), req.StartTime, req.EndTime)
	if err != nil {
		return fail(c, "update_session", err)
	}
	return c.JSON(http.StatusOK, toShiftDTO(shift))
}
