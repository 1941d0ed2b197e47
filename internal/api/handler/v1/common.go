package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/request"
	"github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/kids-ledger-api/internal/api/middleware"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

var (
	errNoCaller    = errors.New("no authenticated caller on request")
	errUnknownRole = errors.New("role must be one of parent, volunteer, vendor, admin")
)

// HandleHealthcheck godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func callerFrom(ctx *gin.Context) (domain.Caller, *response.Err) {
	caller, ok := middleware.CallerFrom(ctx)
	if !ok {
		return domain.Caller{}, response.ErrUnauthenticated(errNoCaller)
	}

	return caller, nil
}

// renderServiceErr writes the mapped error; op names the handler for the log.
func renderServiceErr(ctx *gin.Context, op string, err error) {
	resp := response.FromService(err)
	if resp.HTTPStatusCode >= http.StatusInternalServerError {
		resp.Err = fmt.Errorf("%s -> %w", op, err)
	}
	response.RenderErr(ctx, resp)
}

func uuidParam(ctx *gin.Context, name string) (uuid.UUID, *response.Err) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, response.ErrBadRequest(fmt.Errorf("invalid %s: %w", name, err))
	}

	return id, nil
}

func parseUUID(field, s string) (uuid.UUID, *response.Err) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, response.ErrBadRequest(fmt.Errorf("invalid %s: %w", field, err))
	}

	return id, nil
}

// pageQuery reads limit and offset; zero values are left for the service to
// default and clamp.
func pageQuery(ctx *gin.Context) (domain.Page, *response.Err) {
	var page domain.Page
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"limit", &page.Limit},
		{"offset", &page.Offset},
	} {
		raw := ctx.Query(q.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.Page{}, response.ErrBadRequest(fmt.Errorf("%s must be a non-negative integer", q.name))
		}
		*q.dst = n
	}

	return page, nil
}

func boolQuery(ctx *gin.Context, name string) (*bool, *response.Err) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, response.ErrBadRequest(fmt.Errorf("%s must be true or false", name))
	}

	return &b, nil
}

// rangeQuery reads optional from/to bounds as a half-open window.
func rangeQuery(ctx *gin.Context, loc *time.Location) (from, to *time.Time, respErr *response.Err) {
	if raw := ctx.Query("from"); raw != "" {
		t, _, err := request.ParseTime(raw, loc)
		if err != nil {
			return nil, nil, response.ErrBadRequest(fmt.Errorf("from: %w", err))
		}
		from = &t
	}
	if raw := ctx.Query("to"); raw != "" {
		t, err := request.RangeEnd(raw, loc)
		if err != nil {
			return nil, nil, response.ErrBadRequest(fmt.Errorf("to: %w", err))
		}
		to = &t
	}

	return from, to, nil
}

func bindJSON(ctx *gin.Context, req interface{ Validate() error }) *response.Err {
	if err := ctx.ShouldBindJSON(req); err != nil {
		return response.ErrBadRequest(err)
	}
	if err := req.Validate(); err != nil {
		return response.ErrBadRequest(err)
	}

	return nil
}
