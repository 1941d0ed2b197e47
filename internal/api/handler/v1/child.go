package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

type ChildService interface {
	ListOwn(ctx context.Context, caller domain.Caller) ([]domain.ChildDetail, error)
	Get(ctx context.Context, caller domain.Caller, childID uuid.UUID) (domain.ChildDetail, error)
	Transactions(ctx context.Context, caller domain.Caller, childID uuid.UUID, page domain.Page) (domain.Paged[domain.Transaction], error)
	Lookup(ctx context.Context, caller domain.Caller, code string) (domain.ChildDetail, error)
}

type ChildHandler struct {
	svc ChildService
}

func NewChildHandler(svc ChildService) *ChildHandler {
	return &ChildHandler{
		svc: svc,
	}
}

// HandleListOwn godoc
// @Summary      List the caller's children
// @Tags         children
// @Produce      json
// @Success      200  {array}   domain.ChildDetail
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /children [get]
// @Security     BearerAuth
func (h *ChildHandler) HandleListOwn(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	children, err := h.svc.ListOwn(ctx.Request.Context(), caller)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListOwn -> h.svc.ListOwn", err)
		return
	}

	ctx.JSON(http.StatusOK, children)
}

// HandleGetChild godoc
// @Summary      Get a child
// @Description  Parents may only read their own children.
// @Tags         children
// @Produce      json
// @Param        childId  path      string  true  "Child ID"
// @Success      200      {object}  domain.ChildDetail
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /children/{childId} [get]
// @Security     BearerAuth
func (h *ChildHandler) HandleGetChild(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	childID, respErr := uuidParam(ctx, "childId")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	detail, err := h.svc.Get(ctx.Request.Context(), caller, childID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetChild -> h.svc.Get", err)
		return
	}

	ctx.JSON(http.StatusOK, detail)
}

// HandleChildTransactions godoc
// @Summary      List a child's transactions
// @Description  Newest first. Parents may only read their own children.
// @Tags         children
// @Produce      json
// @Param        childId  path      string  true   "Child ID"
// @Param        limit    query     int     false  "page size"
// @Param        offset   query     int     false  "page offset"
// @Success      200      {object}  domain.Paged[domain.Transaction]
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /children/{childId}/transactions [get]
// @Security     BearerAuth
func (h *ChildHandler) HandleChildTransactions(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	childID, respErr := uuidParam(ctx, "childId")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	txns, err := h.svc.Transactions(ctx.Request.Context(), caller, childID, page)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleChildTransactions -> h.svc.Transactions", err)
		return
	}

	ctx.JSON(http.StatusOK, txns)
}

// HandleLookupCode godoc
// @Summary      Resolve a scanned QR code
// @Tags         qr
// @Produce      json
// @Param        code  path      string  true  "QR code"
// @Success      200   {object}  domain.ChildDetail
// @Failure      400   {object}  response.Err
// @Failure      401   {object}  response.Err
// @Failure      403   {object}  response.Err
// @Failure      404   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /qr/{code} [get]
// @Security     BearerAuth
func (h *ChildHandler) HandleLookupCode(ctx *gin.Context) {
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

	detail, err := h.svc.Lookup(ctx.Request.Context(), caller, code)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleLookupCode -> h.svc.Lookup", err)
		return
	}

	ctx.JSON(http.StatusOK, detail)
}
