package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core/shabbaton"
)

type shabbatonApi struct {
	svc *shabbaton.Service
}

func registerShabbatonAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *shabbaton.Service) {
	api := shabbatonApi{svc: svc}

	sg := g.Group("/shabbatons", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create, adminMiddleware())
	sg.GET("/:id", api.retrieve)
	sg.POST("/:id/attendances", api.requestAttendance)

	ag := g.Group("/attendances", jwt)
	ag.GET("", api.queryAttendances)
	ag.POST("/:id/confirm", api.confirmAttendance, adminMiddleware())
	ag.POST("/:id/revoke", api.revokeAttendance, adminMiddleware())
}

func (api *shabbatonApi) create(ctx echo.Context) error {
	var data shabbaton.NewShabbaton
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewShabbaton")
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *shabbatonApi) query(ctx echo.Context) error {
	ss, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying shabbatons")
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *shabbatonApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *shabbatonApi) requestAttendance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	a, err := api.svc.RequestAttendance(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *shabbatonApi) queryAttendances(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := shabbaton.AttendanceFilter{
		ParticipantID: ctx.QueryParam("participant"),
		ShabbatonID:   ctx.QueryParam("shabbaton"),
	}
	if !claims.IsAdmin {
		filter.ParticipantID = claims.Subject
	}

	as, err := api.svc.QueryAttendances(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendances")
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *shabbatonApi) confirmAttendance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.svc.ConfirmAttendance(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *shabbatonApi) revokeAttendance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.svc.RevokeAttendance(ctx.Request().Context(), ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
