package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type QRCodeService interface {
	Generate(ctx context.Context, caller domain.Caller, count int) ([]domain.QRCode, error)
	List(ctx context.Context, q domain.QRCodeQuery) (domain.Paged[domain.QRCode], error)
	Assign(ctx context.Context, caller domain.Caller, code string, childID uuid.UUID) (domain.QRCode, error)
	Unassign(ctx context.Context, caller domain.Caller, code string) (domain.QRCode, error)
	Print(ctx context.Context, caller domain.Caller, ids []uuid.UUID) ([]byte, error)
}

type QRCodeHandler struct {
	svc      QRCodeService
	maxBatch int
	now      func() time.Time
}

func NewQRCodeHandler(svc QRCodeService, maxBatch int) *QRCodeHandler {
	return &QRCodeHandler{
		svc:      svc,
		maxBatch: maxBatch,
		now:      time.Now,
	}
}

// HandleGenerate godoc
// @Summary      Generate QR codes
// @Tags         qr
// @Accept       json
// @Produce      json
// @Param        request  body      request.GenerateQRCodesRequest  true  "request body"
// @Success      201      {object}  response.GenerateQRCodesResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/create-qr-codes [post]
// @Security     BearerAuth
func (h *QRCodeHandler) HandleGenerate(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.GenerateQRCodesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(h.maxBatch); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	codes, err := h.svc.Generate(ctx.Request.Context(), caller, req.Count)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGenerate -> h.svc.Generate", err)
		return
	}

	ctx.JSON(http.StatusCreated, response.GenerateQRCodesResponse{
		Count: len(codes),
		Codes: codes,
	})
}

// HandleListCodes godoc
// @Summary      List QR codes
// @Tags         qr
// @Produce      json
// @Param        limit     query     int   false  "page size"
// @Param        offset    query     int   false  "page offset"
// @Param        printed   query     bool  false  "filter on printed"
// @Param        assigned  query     bool  false  "filter on assigned"
// @Success      200       {object}  domain.Paged[domain.QRCode]
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      403       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /admin/qr-codes [get]
// @Security     BearerAuth
func (h *QRCodeHandler) HandleListCodes(ctx *gin.Context) {
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	printed, respErr := boolQuery(ctx, "printed")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	assigned, respErr := boolQuery(ctx, "assigned")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	codes, err := h.svc.List(ctx.Request.Context(), domain.QRCodeQuery{
		Page:     page,
		Printed:  printed,
		Assigned: assigned,
	})
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListCodes -> h.svc.List", err)
		return
	}

	ctx.JSON(http.StatusOK, codes)
}

// HandleAssign godoc
// @Summary      Assign a QR code to a child
// @Tags         qr
// @Accept       json
// @Produce      json
// @Param        code     path      string                       true  "QR code"
// @Param        request  body      request.AssignQRCodeRequest  true  "request body"
// @Success      200      {object}  domain.QRCode
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/qr-codes/{code}/assign [post]
// @Security     BearerAuth
func (h *QRCodeHandler) HandleAssign(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	code, err := request.NormalizeQRCode(ctx.Param("code"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.AssignQRCodeRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	childID, respErr := parseUUID("childId", req.ChildID)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	qr, err := h.svc.Assign(ctx.Request.Context(), caller, code, childID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleAssign -> h.svc.Assign", err)
		return
	}

	ctx.JSON(http.StatusOK, qr)
}

// HandleUnassign godoc
// @Summary      Release a QR code from its child
// @Tags         qr
// @Produce      json
// @Param        code  path      string  true  "QR code"
// @Success      200   {object}  domain.QRCode
// @Failure      400   {object}  response.Err
// @Failure      401   {object}  response.Err
// @Failure      403   {object}  response.Err
// @Failure      404   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /admin/qr-codes/{code}/assign [delete]
// @Security     BearerAuth
func (h *QRCodeHandler) HandleUnassign(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	code, err := request.NormalizeQRCode(ctx.Param("code"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	qr, err := h.svc.Unassign(ctx.Request.Context(), caller, code)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUnassign -> h.svc.Unassign", err)
		return
	}

	ctx.JSON(http.StatusOK, qr)
}

// HandlePrint godoc
// @Summary      Print QR business cards
// @Description  Returns a US-letter PDF with fronts (QR image) and mirrored backs, 2x4 cards per page. Printed codes are marked printed.
// @Tags         qr
// @Accept       json
// @Produce      application/pdf
// @Param        request  body      request.PrintQRCodesRequest  true  "request body"
// @Success      200      {file}    file
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/qr-codes/print [post]
// @Security     BearerAuth
func (h *QRCodeHandler) HandlePrint(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.PrintQRCodesRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, respErr := parseUUID("id", raw)
		if respErr != nil {
			response.RenderErr(ctx, respErr)
			return
		}
		ids = append(ids, id)
	}

	pdf, err := h.svc.Print(ctx.Request.Context(), caller, ids)
	if err != nil {
		renderServiceErr(ctx, "v1.HandlePrint -> h.svc.Print", err)
		return
	}

	filename := fmt.Sprintf("qr-cards-%s.pdf", h.now().UTC().Format("20060102-150405"))
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}
