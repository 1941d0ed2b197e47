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
	"github.com/vietanh2810/kids-ledger-api/internal/service"
)

type LedgerService interface {
	CreateChild(ctx context.Context, caller domain.Caller, in service.CreateChildInput) (domain.Child, domain.Balance, error)
	CheckIn(ctx context.Context, caller domain.Caller, childID uuid.UUID) (domain.ChildDetail, error)
	Withdraw(ctx context.Context, caller domain.Caller, childID uuid.UUID, amountCents int64) (domain.Balance, domain.Transaction, error)
	Deposit(ctx context.Context, caller domain.Caller, childID uuid.UUID, amountCents int64) (domain.Balance, domain.Transaction, error)
	VendorReturn(ctx context.Context, caller domain.Caller, in service.VendorReturnInput) (domain.VendorTokenTurnin, error)
	TokenDeposit(ctx context.Context, caller domain.Caller, in service.TokenDepositInput) (domain.TokenDeposit, error)
}

type LedgerHandler struct {
	svc LedgerService
	loc *time.Location
}

// NewLedgerHandler parses calendar dates in loc.
func NewLedgerHandler(svc LedgerService, loc *time.Location) *LedgerHandler {
	if loc == nil {
		loc = time.UTC
	}

	return &LedgerHandler{
		svc: svc,
		loc: loc,
	}
}

// HandleCreateChild godoc
// @Summary      Register a child
// @Description  Parents always register their own child; volunteers and admins must give parentId. The child starts with a zero balance.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateChildRequest  true  "request body"
// @Success      201      {object}  response.CreateChildResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /child-create [post]
// @Security     BearerAuth
func (h *LedgerHandler) HandleCreateChild(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateChildRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	in := service.CreateChildInput{
		Name:   req.Name,
		Gender: domain.Gender(req.Gender),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(request.DateLayout, req.DateOfBirth)
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("dateOfBirth: %w", err)))
			return
		}
		in.DateOfBirth = &dob
	}
	if req.ParentID != "" {
		parentID, respErr := parseUUID("parentId", req.ParentID)
		if respErr != nil {
			response.RenderErr(ctx, respErr)
			return
		}
		in.ParentID = &parentID
	}

	child, balance, err := h.svc.CreateChild(ctx.Request.Context(), caller, in)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateChild -> h.svc.CreateChild", err)
		return
	}

	ctx.JSON(http.StatusCreated, response.CreateChildResponse{
		Child:   child,
		Balance: balance,
	})
}

// HandleCheckin godoc
// @Summary      Check a child in
// @Description  Credits the check-in amount unless the child checked in within the cooldown window, in which case 429 carries the remaining hours.
// @Tags         ledger
// @Produce      json
// @Param        childId  path      string  true  "Child ID"
// @Success      201      {object}  domain.ChildDetail
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      429      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /checkin/{childId} [post]
// @Security     BearerAuth
func (h *LedgerHandler) HandleCheckin(ctx *gin.Context) {
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

	detail, err := h.svc.CheckIn(ctx.Request.Context(), caller, childID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCheckin -> h.svc.CheckIn", err)
		return
	}

	ctx.JSON(http.StatusCreated, detail)
}

// HandleWithdraw godoc
// @Summary      Withdraw from a child's balance
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request  body      request.BalanceMoveRequest  true  "request body"
// @Success      200      {object}  response.BalanceMoveResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /withdraw [post]
// @Security     BearerAuth
func (h *LedgerHandler) HandleWithdraw(ctx *gin.Context) {
	h.handleMove(ctx, "v1.HandleWithdraw -> h.svc.Withdraw", h.svc.Withdraw)
}

// HandleDeposit godoc
// @Summary      Deposit into a child's balance
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request  body      request.BalanceMoveRequest  true  "request body"
// @Success      200      {object}  response.BalanceMoveResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /deposit [post]
// @Security     BearerAuth
func (h *LedgerHandler) HandleDeposit(ctx *gin.Context) {
	h.handleMove(ctx, "v1.HandleDeposit -> h.svc.Deposit", h.svc.Deposit)
}

type moveFunc func(ctx context.Context, caller domain.Caller, childID uuid.UUID, amountCents int64) (domain.Balance, domain.Transaction, error)

func (h *LedgerHandler) handleMove(ctx *gin.Context, op string, move moveFunc) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.BalanceMoveRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	childID, respErr := parseUUID("childId", req.ChildID)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	balance, txn, err := move(ctx.Request.Context(), caller, childID, req.AmountCents)
	if err != nil {
		renderServiceErr(ctx, op, err)
		return
	}

	ctx.JSON(http.StatusOK, response.BalanceMoveResponse{
		Balance:     balance,
		Transaction: txn,
	})
}

// HandleVendorReturn godoc
// @Summary      Record tokens turned in by a vendor
// @Description  Counts physical tokens; no balance is touched. marketDate defaults to now.
// @Tags         tokens
// @Accept       json
// @Produce      json
// @Param        request  body      request.VendorReturnRequest  true  "request body"
// @Success      201      {object}  domain.VendorTokenTurnin
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /vendor-return [post]
// @Security     BearerAuth
func (h *LedgerHandler) HandleVendorReturn(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.VendorReturnRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	vendorID, respErr := parseUUID("vendorId", req.VendorID)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}
	marketDate, err := request.OptionalTime(req.MarketDate, h.loc)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("marketDate: %w", err)))
		return
	}

	turnin, err := h.svc.VendorReturn(ctx.Request.Context(), caller, service.VendorReturnInput{
		VendorID:        vendorID,
		TokensSubmitted: *req.TokensSubmitted,
		MarketDate:      marketDate,
	})
	if err != nil {
		renderServiceErr(ctx, "v1.HandleVendorReturn -> h.svc.VendorReturn", err)
		return
	}

	ctx.JSON(http.StatusCreated, turnin)
}

// HandleTokenDeposit godoc
// @Summary      Record tokens deposited at the desk
// @Tags         tokens
// @Accept       json
// @Produce      json
// @Param        request  body      request.TokenDepositRequest  true  "request body"
// @Success      201      {object}  domain.TokenDeposit
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /token-deposit [post]
// @Security     BearerAuth
func (h *LedgerHandler) HandleTokenDeposit(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.TokenDepositRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	in := service.TokenDepositInput{
		TokensDeposited: *req.TokensDeposited,
		Notes:           req.Notes,
	}
	if req.UserID != "" {
		userID, respErr := parseUUID("userId", req.UserID)
		if respErr != nil {
			response.RenderErr(ctx, respErr)
			return
		}
		in.UserID = &userID
	}
	depositDate, err := request.OptionalTime(req.DepositDate, h.loc)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("depositDate: %w", err)))
		return
	}
	in.DepositDate = depositDate

	deposit, err := h.svc.TokenDeposit(ctx.Request.Context(), caller, in)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleTokenDeposit -> h.svc.TokenDeposit", err)
		return
	}

	ctx.JSON(http.StatusCreated, deposit)
}
