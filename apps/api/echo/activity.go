package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core/activity"
)

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *activity.Service) {
	api := activityApi{svc: svc}

	ag := g.Group("/activity", jwt)
	ag.POST("/meals", api.logMeal)
	ag.GET("/meals", api.queryMeals)
	ag.DELETE("/meals/:id", api.deleteMeal)
	ag.POST("/sessions", api.logSession)
	ag.GET("/sessions", api.querySessions)
	ag.DELETE("/sessions/:id", api.deleteSession)
}

// DeleteRequest carries the audit reason of a soft delete.
type DeleteRequest struct {
	Reason string `json:"reason"`
}

func (api *activityApi) logMeal(ctx echo.Context) error {
	var data activity.NewMealLog
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMealLog")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	source := activity.MealAdminEntry
	if !claims.IsAdmin {
		// participants only ever self-report their own meals
		data.ParticipantID = claims.Subject
		source = activity.MealSelfReport
	}

	m, err := api.svc.LogMeal(ctx.Request().Context(), data, source, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *activityApi) queryMeals(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	ms, err := api.svc.QueryMeals(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying meal logs")
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *activityApi) deleteMeal(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	m, err := api.svc.GetMeal(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if !claims.IsAdmin && m.ParticipantID != claims.Subject {
		return errHTTPForbidden
	}

	var data DeleteRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteRequest")
	}
	if err = api.svc.DeleteMeal(reqCtx, m.ID, data.Reason, claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *activityApi) logSession(ctx echo.Context) error {
	var data activity.NewLearningSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLearningSession")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var source activity.SessionSource
	if claims.IsAdmin {
		source = activity.SessionAdminEntry
	} else {
		// participants pick Self|Hevruta in the payload
		data.ParticipantID = claims.Subject
	}

	s, err := api.svc.LogSession(ctx.Request().Context(), data, source, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *activityApi) querySessions(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}
	ss, err := api.svc.QuerySessions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying learning sessions")
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *activityApi) deleteSession(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	s, err := api.svc.GetSession(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if !claims.IsAdmin && s.ParticipantID != claims.Subject {
		return errHTTPForbidden
	}

	var data DeleteRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteRequest")
	}
	if err = api.svc.DeleteSession(reqCtx, s.ID, data.Reason, claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// bindFilter builds the activity query filter; non-admins are pinned to their
// own rows whatever the query params say.
func (api *activityApi) bindFilter(ctx echo.Context) (activity.QueryFilter, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return activity.QueryFilter{}, errors.Wrap(err, "getting context claims")
	}

	filter := activity.QueryFilter{ParticipantID: ctx.QueryParam("participant")}
	filter.AppliedYear, _ = strconv.Atoi(ctx.QueryParam("year"))
	filter.AppliedMonth, _ = strconv.Atoi(ctx.QueryParam("month"))
	if !claims.IsAdmin {
		filter.ParticipantID = claims.Subject
	}
	return filter, nil
}
