package echoapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uwsprogram/tracker/core"
	"github.com/uwsprogram/tracker/core/compliance"
	"github.com/uwsprogram/tracker/core/participant"
	"github.com/uwsprogram/tracker/core/report"
)

type complianceApi struct {
	svc            *compliance.Service
	participantSvc *participant.Service
}

func registerComplianceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *compliance.Service, participantSvc *participant.Service) {
	api := complianceApi{svc: svc, participantSvc: participantSvc}

	cg := g.Group("/compliance", jwt)
	cg.GET("/month-logs", api.query, adminMiddleware())
	cg.POST("/month-logs/recompute", api.recompute, adminMiddleware())
	cg.PUT("/month-logs/payment", api.markPayment, adminMiddleware())
	cg.GET("/reports/monthly", api.monthlyReport, adminMiddleware())
	cg.GET("/reports/payments", api.paymentsReport, adminMiddleware())

	g.GET("/participants/:id/month-logs", api.queryForParticipant, jwt, selfOrAdminMiddleware())
}

type MonthLogKeyRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	Year          int    `json:"year" validate:"required"`
	Month         int    `json:"month" validate:"required,min=1,max=12"`
}

func (r *MonthLogKeyRequest) Validate() error {
	return core.Validate.Struct(r)
}

type MarkPaymentRequest struct {
	MonthLogKeyRequest
	Paid bool `json:"paid"`
}

func (api *complianceApi) query(ctx echo.Context) error {
	filter := compliance.QueryFilter{ParticipantID: ctx.QueryParam("participant")}
	filter.Year, _ = strconv.Atoi(ctx.QueryParam("year"))
	filter.Month, _ = strconv.Atoi(ctx.QueryParam("month"))
	if statuses := ctx.QueryParam("payment_status"); statuses != "" {
		for _, s := range strings.Split(statuses, ",") {
			filter.PaymentStatuses = append(filter.PaymentStatuses, compliance.PaymentStatus(strings.TrimSpace(s)))
		}
	}

	mls, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying month logs")
	}
	return ctx.JSON(http.StatusOK, mls)
}

func (api *complianceApi) queryForParticipant(ctx echo.Context) error {
	mls, err := api.svc.QueryForParticipant(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying participant month logs")
	}
	return ctx.JSON(http.StatusOK, mls)
}

func (api *complianceApi) recompute(ctx echo.Context) error {
	var data MonthLogKeyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MonthLogKeyRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	if err := api.svc.Recompute(reqCtx, data.ParticipantID, data.Year, data.Month); err != nil {
		return err
	}
	ml, err := api.svc.Get(reqCtx, data.ParticipantID, data.Year, data.Month)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ml)
}

func (api *complianceApi) markPayment(ctx echo.Context) error {
	var data MarkPaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkPaymentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	markedBy := claims.Email
	if markedBy == "" {
		markedBy = claims.Subject
	}

	ml, err := api.svc.MarkPayment(ctx.Request().Context(), data.ParticipantID, data.Year, data.Month, data.Paid, markedBy)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ml)
}

func (api *complianceApi) monthlyReport(ctx echo.Context) error {
	year, _ := strconv.Atoi(ctx.QueryParam("year"))
	month, _ := strconv.Atoi(ctx.QueryParam("month"))
	if year == 0 || month < 1 || month > 12 {
		return core.NewValidationError(errors.New("a valid year and month are required"))
	}

	reqCtx := ctx.Request().Context()
	participants, err := api.participantSvc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying participants")
	}
	logs, err := api.svc.Query(reqCtx, compliance.QueryFilter{Year: year, Month: month})
	if err != nil {
		return errors.Wrap(err, "querying month logs")
	}

	blob, err := report.MonthlyCompliance(participants, logs, year, month)
	if err != nil {
		return err
	}
	return api.sendCSV(ctx, fmt.Sprintf("compliance-%d-%02d.csv", year, month), blob)
}

func (api *complianceApi) paymentsReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	participants, err := api.participantSvc.QueryAll(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying participants")
	}
	logs, err := api.svc.Query(reqCtx, compliance.QueryFilter{
		PaymentStatuses: []compliance.PaymentStatus{compliance.PaymentDue, compliance.PaymentPaid},
	})
	if err != nil {
		return errors.Wrap(err, "querying month logs")
	}

	blob, err := report.Payments(participants, logs)
	if err != nil {
		return err
	}
	return api.sendCSV(ctx, "payments.csv", blob)
}

func (api *complianceApi) sendCSV(ctx echo.Context, filename string, blob []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Blob(http.StatusOK, "text/csv", blob)
}
