package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"haggle/internal/app/live"
	"haggle/internal/app/negotiate"
	"haggle/internal/app/ports"
	"haggle/internal/app/replay"
	"haggle/internal/domain/negotiation"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const idempotencyKeyHeader = "Idempotency-Key"

type Handler struct {
	NegotiateUC negotiate.UseCase
	ReplayUC    replay.UseCase
	LiveUC      live.UseCase
	KPI         kpiSnapshotProvider
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(requestIDMiddleware(), corsMiddleware())

	api := s.Group("/api")
	api.POST("/negotiations", h.negotiate)
	api.GET("/negotiations", h.listNegotiations)
	api.GET("/negotiations/:id", h.getNegotiation)
	api.POST("/negotiations/:id/verify", h.verifyNegotiation)
	api.GET("/personalities", h.personalities)

	api.POST("/live", h.liveStart)
	api.GET("/live/:id", h.liveGet)
	api.POST("/live/:id/turn", h.liveTurn)
	api.DELETE("/live/:id", h.liveEnd)

	s.GET("/ops/kpi", h.kpi)
	s.GET("/healthz", h.health)
}

type negotiateRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	negotiation.SessionConfig
}

func (h Handler) negotiate(c context.Context, ctx *app.RequestContext) {
	var body negotiateRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	key := strings.TrimSpace(string(ctx.GetHeader(idempotencyKeyHeader)))
	if key == "" {
		key = body.IdempotencyKey
	}

	resp, err := h.NegotiateUC.Execute(c, negotiate.Request{
		IdempotencyKey: key,
		Config:         body.SessionConfig,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	status := consts.StatusCreated
	if resp.Replayed {
		status = consts.StatusOK
	}
	ctx.JSON(status, resp)
}

func (h Handler) listNegotiations(c context.Context, ctx *app.RequestContext) {
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	resp, err := h.ReplayUC.List(c, replay.ListRequest{Limit: limit})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) getNegotiation(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ReplayUC.Get(c, replay.Request{ID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) verifyNegotiation(c context.Context, ctx *app.RequestContext) {
	resp, err := h.ReplayUC.Verify(c, replay.Request{ID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) personalities(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{
		"personalities": negotiation.Catalog(),
	})
}

func (h Handler) liveStart(c context.Context, ctx *app.RequestContext) {
	var body live.StartRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.LiveUC.Start(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) liveGet(c context.Context, ctx *app.RequestContext) {
	resp, err := h.LiveUC.Get(c, live.Request{SessionID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) liveTurn(c context.Context, ctx *app.RequestContext) {
	var body live.StepRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	body.SessionID = ctx.Param("id")
	resp, err := h.LiveUC.Step(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) liveEnd(c context.Context, ctx *app.RequestContext) {
	resp, err := h.LiveUC.End(c, live.Request{SessionID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func (h Handler) health(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	var cfgErr *negotiation.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		writeErrorBodyWithField(ctx, consts.StatusBadRequest, "invalid_config", err.Error(), cfgErr.Field)
	case errors.Is(err, negotiation.ErrInvalidConfig):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_config", err.Error())
	case errors.Is(err, negotiate.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, live.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, live.ErrSessionClosed):
		writeErrorBody(ctx, consts.StatusConflict, "session_closed", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	writeErrorBodyWithField(ctx, status, code, message, "")
}

func writeErrorBodyWithField(ctx *app.RequestContext, status int, code, message, field string) {
	body := map[string]string{
		"code":    code,
		"message": message,
	}
	if field != "" {
		body["field"] = field
	}
	if id := requestID(ctx); id != "" {
		body["request_id"] = id
	}
	ctx.JSON(status, map[string]any{"error": body})
}
