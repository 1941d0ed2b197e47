package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/kids-ledger-api/internal/api/middleware"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, identity domain.Identity, p service.Profile) (domain.User, error)
}

type UserService interface {
	Me(ctx context.Context, caller domain.Caller) (domain.User, error)
	UpdateProfile(ctx context.Context, caller domain.Caller, p service.Profile) (domain.User, error)
	List(ctx context.Context, q domain.UserQuery) (domain.Paged[domain.User], error)
	ChangeRole(ctx context.Context, caller domain.Caller, userID uuid.UUID, role domain.Role) (domain.User, error)
}

type UserHandler struct {
	auth AuthService
	svc  UserService
}

func NewUserHandler(auth AuthService, svc UserService) *UserHandler {
	return &UserHandler{
		auth: auth,
		svc:  svc,
	}
}

// HandleRegister godoc
// @Summary      Register the authenticated identity as a user
// @Description  Creates the user row for the bearer token's subject. The role comes from a recognised role claim and is parent otherwise.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      request.ProfileRequest  true  "request body"
// @Success      201      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /register [post]
// @Security     BearerAuth
func (h *UserHandler) HandleRegister(ctx *gin.Context) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthenticated(errNoCaller))
		return
	}

	var req request.ProfileRequest
	if respErr := bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.auth.Register(ctx.Request.Context(), identity, profile(req))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRegister -> h.auth.Register", err)
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// HandleGetMe godoc
// @Summary      Get the caller's profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /me [get]
// @Security     BearerAuth
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.svc.Me(ctx.Request.Context(), caller)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetMe -> h.svc.Me", err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateMe godoc
// @Summary      Update the caller's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      request.ProfileRequest  true  "request body"
// @Success      200      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /me [put]
// @Security     BearerAuth
func (h *UserHandler) HandleUpdateMe(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ProfileRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.svc.UpdateProfile(ctx.Request.Context(), caller, profile(req))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUpdateMe -> h.svc.UpdateProfile", err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleListUsers godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        limit   query     int     false  "page size"
// @Param        offset  query     int     false  "page offset"
// @Param        search  query     string  false  "name or email contains"
// @Param        role    query     string  false  "parent, volunteer, vendor or admin"
// @Success      200     {object}  domain.Paged[domain.User]
// @Failure      400     {object}  response.Err
// @Failure      401     {object}  response.Err
// @Failure      403     {object}  response.Err
// @Failure      500     {object}  response.Err
// @Router       /admin/users [get]
// @Security     BearerAuth
func (h *UserHandler) HandleListUsers(ctx *gin.Context) {
	page, respErr := pageQuery(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	q := domain.UserQuery{
		Page:   page,
		Search: ctx.Query("search"),
	}
	if raw := ctx.Query("role"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			response.RenderErr(ctx, response.ErrBadRequest(errUnknownRole))
			return
		}
		q.Role = role
	}

	users, err := h.svc.List(ctx.Request.Context(), q)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListUsers -> h.svc.List", err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleChangeRole godoc
// @Summary      Change a user's role
// @Description  Saves the role, then writes it to the identity provider. If the second step fails the saved role stays and 500 asks for manual reconciliation.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        userId   path      string                     true  "User ID"
// @Param        request  body      request.ChangeRoleRequest  true  "request body"
// @Success      200      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /admin/users/{userId}/role [put]
// @Security     BearerAuth
func (h *UserHandler) HandleChangeRole(ctx *gin.Context) {
	caller, respErr := callerFrom(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	userID, respErr := uuidParam(ctx, "userId")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ChangeRoleRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	user, err := h.svc.ChangeRole(ctx.Request.Context(), caller, userID, domain.Role(req.Role))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleChangeRole -> h.svc.ChangeRole", err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}

func profile(req request.ProfileRequest) service.Profile {
	return service.Profile{
		Name:         req.Name,
		Phone:        req.Phone,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		PostalCode:   req.PostalCode,
	}
}
