package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core/participant"
)

type participantApi struct {
	svc *participant.Service
}

func registerParticipantAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *participant.Service) {
	api := participantApi{svc: svc}

	pg := g.Group("/participants", jwt)
	pg.GET("", api.query, adminMiddleware())
	pg.POST("", api.create, adminMiddleware())

	dg := pg.Group("/:id", selfOrAdminMiddleware())
	dg.GET("", api.retrieve)
}

func (api *participantApi) create(ctx echo.Context) error {
	var data participant.NewParticipant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParticipant")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *participantApi) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var (
		ps  []participant.Participant
		err error
	)
	if ctx.QueryParam("active") == "true" {
		ps, err = api.svc.QueryActive(reqCtx)
	} else {
		ps, err = api.svc.QueryAll(reqCtx)
	}
	if err != nil {
		return errors.Wrap(err, "querying participants")
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (api *participantApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}
