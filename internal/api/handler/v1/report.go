package v1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/pkg/csvexport"
)

var errRangeRequired = errors.New("from and to are required")

type ReportService interface {
	Children(ctx context.Context, q domain.ChildQuery) (domain.Paged[domain.ChildOverview], error)
	ExportChildren(ctx context.Context, q domain.ChildQuery) ([]domain.ChildOverview, error)
	Checkins(ctx context.Context, q domain.CheckinQuery) (domain.Paged[domain.CheckinOverview], error)
	ExportCheckins(ctx context.Context, q domain.CheckinQuery) ([]domain.CheckinOverview, error)
	Transactions(ctx context.Context, q domain.TransactionQuery) (domain.Paged[domain.Transaction], error)
	VendorReturns(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.VendorTokenTurnin], error)
	TokenDeposits(ctx context.Context, q domain.TokenQuery) (domain.Paged[domain.TokenDeposit], error)
	AuditLogs(ctx context.Context, q domain.AuditQuery) (domain.Paged[domain.AuditLog], error)
	Summary(ctx context.Context, from, to *time.Time) (domain.Summary, error)
}

type ReportHandler struct {
	svc ReportService
	loc *time.Location
	now func() time.Time
}

// NewReportHandler reads bare dates in query strings as days in loc.
func NewReportHandler(svc ReportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}

	return &ReportHandler{
		svc: svc,
		loc: loc,
		now: time.Now,
	}
}

// HandleChildren godoc
// @Summary      Children report
// @Description  Search matches name, parent name, parent email or QR code; a numeric term also matches the balance in dollars.
// @Tags         admin
// @Produce      json
// @Param        limit   query     int     false  "page size, capped"
// @Param        offset  query     int     false  "page offset"
// @Param        sortBy  query     string  false  "name, age, balance, parentName, checkinCount or lastCheckin"
// @Param        order   query     string  false  "asc or desc"
// @Param        search  query     string  false  "search term"
// @Success      200     {object}  domain.Paged[domain.ChildOverview]
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/children [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleChildren(ctx *gin.Context) {
	q, respErr := childQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rows, err := h.svc.Children(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleChildren -> h.svc.Children", err)
		return
	}

	ctx.JSON(http.StatusOK, rows)
}

// HandleExportChildren godoc
// @Summary      Export the children report as CSV
// @Tags         admin
// @Produce      text/csv
// @Param        sortBy  query     string  false  "sort key"
// @Param        order   query     string  false  "asc or desc"
// @Param        search  query     string  false  "search term"
// @Success      200     {file}    file
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/children/export [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleExportChildren(ctx *gin.Context) {
	q, respErr := childQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rows, err := h.svc.ExportChildren(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleExportChildren -> h.svc.ExportChildren", err)
		return
	}

	var buf bytes.Buffer
	if err = csvexport.WriteChildren(&buf, rows); err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleExportChildren -> csvexport.WriteChildren -> %w", err)))
		return
	}

	h.sendCSV(ctx, "children", buf.Bytes())
}

// HandleCheckins godoc
// @Summary      Check-in report
// @Description  A bare date for to includes that whole day.
// @Tags         admin
// @Produce      json
// @Param        from    query     string  true   "date or RFC 3339 instant"
// @Param        to      query     string  true   "date or RFC 3339 instant"
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "page offset"
// @Success      200     {object}  domain.Paged[domain.CheckinOverview]
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/checkins [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleCheckins(ctx *gin.Context) {
	q, respErr := h.checkinQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rows, err := h.svc.Checkins(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCheckins -> h.svc.Checkins", err)
		return
	}

	ctx.JSON(http.StatusOK, rows)
}

// HandleExportCheckins godoc
// @Summary      Export the check-in report as CSV
// @Tags         admin
// @Produce      text/csv
// @Param        from  query     string  true  "date or RFC 3339 instant"
// @Param        to    query     string  true  "date or RFC 3339 instant"
// @Success      200   {file}    file
// @Failure      400   {object}  response.Err
// @Failure      401   {object}  response.Err
// @Failure      403   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /admin/checkins/export [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleExportCheckins(ctx *gin.Context) {
	q, respErr := h.checkinQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rows, err := h.svc.ExportCheckins(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleExportCheckins -> h.svc.ExportCheckins", err)
		return
	}

	var buf bytes.Buffer
	if err = csvexport.WriteCheckins(&buf, rows); err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleExportCheckins -> csvexport.WriteCheckins -> %w", err)))
		return
	}

	h.sendCSV(ctx, "checkins", buf.Bytes())
}

// HandleTransactions godoc
// @Summary      List transactions
// @Tags         admin
// @Produce      json
// @Param        from     query     string  false  "date or RFC 3339 instant"
// @Param        to       query     string  false  "date or RFC 3339 instant"
// @Param        childId  query     string  false  "Child ID"
// @Param        type     query     string  false  "credit, withdrawal or deposit"
// @Param        limit    query     int     false  "page size"
// @Param        offset   query     int     false  "page offset"
// @Success      200      {object}  domain.Paged[domain.Transaction]
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/transactions [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleTransactions(ctx *gin.Context) {
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	from, to, respErr := rangeQuery(ctx, h.loc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	q := domain.TransactionQuery{
		Page: page,
		From: from,
		To:   to,
		Type: domain.TransactionType(ctx.Query("type")),
	}
	if raw := ctx.Query("childId"); raw != "" {
		childID, respErr := parseUUID("childId", raw)
		if respErr != nil {
			response.RenderErr(ctx, respErr)
			return
		}
		q.ChildID = &childID
	}

	txns, err := h.svc.Transactions(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleTransactions -> h.svc.Transactions", err)
		return
	}

	ctx.JSON(http.StatusOK, txns)
}

// HandleVendorReturns godoc
// @Summary      List vendor token turn-ins
// @Tags         admin
// @Produce      json
// @Param        from    query     string  false  "date or RFC 3339 instant"
// @Param        to      query     string  false  "date or RFC 3339 instant"
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "page offset"
// @Success      200     {object}  domain.Paged[domain.VendorTokenTurnin]
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/vendor-returns [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleVendorReturns(ctx *gin.Context) {
	q, respErr := h.tokenQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rows, err := h.svc.VendorReturns(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleVendorReturns -> h.svc.VendorReturns", err)
		return
	}

	ctx.JSON(http.StatusOK, rows)
}

// HandleTokenDeposits godoc
// @Summary      List token deposits
// @Tags         admin
// @Produce      json
// @Param        from    query     string  false  "date or RFC 3339 instant"
// @Param        to      query     string  false  "date or RFC 3339 instant"
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "page offset"
// @Success      200     {object}  domain.Paged[domain.TokenDeposit]
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/token-deposits [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleTokenDeposits(ctx *gin.Context) {
	q, respErr := h.tokenQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rows, err := h.svc.TokenDeposits(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleTokenDeposits -> h.svc.TokenDeposits", err)
		return
	}

	ctx.JSON(http.StatusOK, rows)
}

// HandleAuditLogs godoc
// @Summary      List audit log entries
// @Tags         admin
// @Produce      json
// @Param        action  query     string  false  "e.g. ledger.withdraw"
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "page offset"
// @Success      200     {object}  domain.Paged[domain.AuditLog]
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/audit-logs [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleAuditLogs(ctx *gin.Context) {
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	rows, err := h.svc.AuditLogs(ctx.Request.Context(), domain.AuditQuery{
		Page:   page,
		Action: domain.AuditAction(ctx.Query("action")),
	})
	if err != nil {
		renderServiceErr(ctx, "v1.HandleAuditLogs -> h.svc.AuditLogs", err)
		return
	}

	ctx.JSON(http.StatusOK, rows)
}

// HandleSummary godoc
// @Summary      Ledger totals
// @Tags         admin
// @Produce      json
// @Param        from  query     string  false  "date or RFC 3339 instant"
// @Param        to    query     string  false  "date or RFC 3339 instant"
// @Success      200   {object}  domain.Summary
// @Failure      400   {object}  response.Err
// @Failure      401   {object}  response.Err
// @Failure      403   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /admin/summary [get]
// @Security     BearerAuth
func (h *ReportHandler) HandleSummary(ctx *gin.Context) {
	from, to, respErr := rangeQuery(ctx, h.loc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	summary, err := h.svc.Summary(ctx.Request.Context(), from, to)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleSummary -> h.svc.Summary", err)
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

func childQuery(ctx *gin.Context) (domain.ChildQuery, *response.Err) {
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		return domain.ChildQuery{}, respErr
	}

	return domain.ChildQuery{
		Page:   page,
		SortBy: domain.ChildSortKey(ctx.Query("sortBy")),
		Order:  domain.SortOrder(ctx.Query("order")),
		Search: ctx.Query("search"),
	}, nil
}

func (h *ReportHandler) checkinQuery(ctx *gin.Context) (domain.CheckinQuery, *response.Err) {
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		return domain.CheckinQuery{}, respErr
	}
	from, to, respErr := rangeQuery(ctx, h.loc)
	if respErr != nil {
		return domain.CheckinQuery{}, respErr
	}
	if from == nil || to == nil {
		return domain.CheckinQuery{}, response.ErrBadRequest(errRangeRequired)
	}

	return domain.CheckinQuery{
		Page:      page,
		DateRange: domain.DateRange{From: *from, To: *to},
	}, nil
}

func (h *ReportHandler) tokenQuery(ctx *gin.Context) (domain.TokenQuery, *response.Err) {
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		return domain.TokenQuery{}, respErr
	}
	from, to, respErr := rangeQuery(ctx, h.loc)
	if respErr != nil {
		return domain.TokenQuery{}, respErr
	}

	return domain.TokenQuery{Page: page, From: from, To: to}, nil
}

func (h *ReportHandler) sendCSV(ctx *gin.Context, name string, body []byte) {
	filename := fmt.Sprintf("%s-%s.csv", name, h.now().In(h.loc).Format("2006-01-02"))
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
