package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/rsvp"
)

type rsvpApi struct {
	svc *rsvp.Service
}

func registerRsvpAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *rsvp.Service) {
	api := rsvpApi{svc: svc}

	rg := g.Group("/rsvps", jwt)
	rg.PUT("", api.set)
	rg.GET("", api.query)
	rg.PUT("/admin", api.adminSet, adminMiddleware())
	rg.DELETE("/:id", api.delete, adminMiddleware())
}

// SetRsvpRequest sets an RSVP; an omitted week_date targets the upcoming
// Saturday.
type SetRsvpRequest struct {
	WeekDate  time.Time `json:"week_date"`
	Attending bool      `json:"attending"`
}

func (r *SetRsvpRequest) Validate() error {
	return core.Validate.Struct(r)
}

type AdminSetRsvpRequest struct {
	SetRsvpRequest
	ParticipantID string `json:"participant_id" validate:"required"`
}

func (r *AdminSetRsvpRequest) Validate() error {
	return core.Validate.Struct(r)
}

func (api *rsvpApi) set(ctx echo.Context) error {
	var data SetRsvpRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetRsvpRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	r, err := api.svc.Set(ctx.Request().Context(), claims.Subject, data.WeekDate, data.Attending)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rsvpApi) adminSet(ctx echo.Context) error {
	var data AdminSetRsvpRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdminSetRsvpRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	r, err := api.svc.AdminSet(ctx.Request().Context(), data.ParticipantID, data.WeekDate, data.Attending)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rsvpApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	reqCtx := ctx.Request().Context()
	var week []time.Time
	if w := ctx.QueryParam("week"); w != "" {
		parsed, err := time.Parse("2006-01-02", w)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "week", Error: "expected YYYY-MM-DD"})
		}
		week = append(week, parsed)
	}

	rs, err := api.svc.QueryAll(reqCtx, week...)
	if err != nil {
		return errors.Wrap(err, "querying RSVPs")
	}
	if !claims.IsAdmin {
		own := rs[:0]
		for _, r := range rs {
			if r.ParticipantID == claims.Subject {
				own = append(own, r)
			}
		}
		rs = own
	}
	return ctx.JSON(http.StatusOK, rs)
}

func (api *rsvpApi) delete(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
