package rest

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
	"github.com/veilshelf/veilshelf/internal/present/rest/presenter"
	"github.com/veilshelf/veilshelf/internal/service"
	"github.com/veilshelf/veilshelf/internal/usecase"
)

type Handler struct {
	config domain.Config
	ledger *usecase.LedgerUsecase
	verify *usecase.VerifyUsecase
	signal *service.SignalService
}

func NewHandler(
	config domain.Config,
	ledger *usecase.LedgerUsecase,
	verify *usecase.VerifyUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config: config,
		ledger: ledger,
		verify: verify,
		signal: signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/veilshelf", h.handleWellKnown)
	e.POST("/records", h.handleCreateRecord)
	e.GET("/records", h.handleListRecords)
	e.GET("/records/:id", h.handleGetRecord)
	e.GET("/records/:id/handle", h.handleGetHandle)
	e.POST("/records/:id/verify", h.handleVerify)
	e.POST("/records/:id/disclose", h.handleDisclose)
	e.GET("/health", h.handleHealth)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	wellknown := veilshelf.WellKnownVeilshelf{
		Version:   "1.0",
		Domain:    h.config.FQDN,
		NodeID:    h.config.NodeID,
		ContextID: h.config.ContextID,
		Oracle:    h.config.OracleID,
		Endpoints: map[string]string{
			"net.veilshelf.records":  "/records",
			"net.veilshelf.record":   "/records/{id}",
			"net.veilshelf.handle":   "/records/{id}/handle",
			"net.veilshelf.verify":   "/records/{id}/verify",
			"net.veilshelf.disclose": "/records/{id}/disclose",
			"net.veilshelf.realtime": "/realtime",
		},
	}
	return presenter.OK(c, wellknown)
}

type createRecordRequest struct {
	ID               string                     `json:"id"`
	Title            string                     `json:"title"`
	Author           string                     `json:"author"`
	Description      string                     `json:"description"`
	PublicCategory   int                        `json:"publicCategory"`
	PublicYear       int                        `json:"publicYear"`
	CiphertextHandle veilshelf.CiphertextHandle `json:"ciphertextHandle"`
	Proof            veilshelf.RangeProof       `json:"proof"`
}

func (h *Handler) handleCreateRecord(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := ctx.Value(domain.RequesterIdCtxKey).(string)
	if !ok {
		return presenter.Unauthorized(c, "authentication required")
	}

	var req createRecordRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	if req.ID == "" {
		return presenter.BadRequestMessage(c, "id is required")
	}
	if req.Title == "" {
		return presenter.BadRequestMessage(c, "title is required")
	}

	err = h.ledger.Create(ctx, usecase.CreateInput{
		ID:             req.ID,
		Title:          req.Title,
		Author:         req.Author,
		Description:    req.Description,
		PublicCategory: req.PublicCategory,
		PublicYear:     req.PublicYear,
		Handle:         req.CiphertextHandle,
		Proof:          req.Proof,
		Creator:        requester,
	})
	if err != nil {
		return presenter.FromError(c, err)
	}

	return presenter.Created(c, echo.Map{"status": "ok", "id": req.ID})
}

func (h *Handler) handleListRecords(c echo.Context) error {
	ctx := c.Request().Context()

	ids, err := h.ledger.ListIDs(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"ids": ids})
}

func (h *Handler) handleGetRecord(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := h.ledger.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}

	return presenter.OK(c, record.Wire())
}

func (h *Handler) handleGetHandle(c echo.Context) error {
	ctx := c.Request().Context()

	handle, err := h.ledger.GetHandle(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}

	return presenter.OK(c, echo.Map{"ciphertextHandle": handle})
}

type verifyRequest struct {
	Value       uint32                `json:"value"`
	Attestation veilshelf.Attestation `json:"attestation"`
}

func (h *Handler) handleVerify(c echo.Context) error {
	ctx := c.Request().Context()

	var req verifyRequest
	err := c.Bind(&req)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	err = h.verify.Verify(ctx, c.Param("id"), req.Value, req.Attestation)
	if err != nil {
		return presenter.FromError(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok", "value": req.Value})
}

func (h *Handler) handleDisclose(c echo.Context) error {
	ctx := c.Request().Context()

	value, err := h.verify.Disclose(ctx, c.Param("id"))
	if err != nil {
		return presenter.FromError(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok", "value": value})
}

func (h *Handler) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.ledger.Health(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy"})
	}

	return presenter.OK(c, echo.Map{"status": "ok"})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type string   `json:"type"`
	IDs  []string `json:"ids"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	input := make(chan []string)
	output := make(chan veilshelf.Event)

	go h.signal.Realtime(ctx, input, output)

	quit := make(chan struct{})

	go func() {
		defer close(input)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "listen":
				input <- req.IDs
				slog.DebugContext(
					ctx, fmt.Sprintf("Socket subscribe: %s", req.IDs),
					slog.String("module", "socket"),
				)
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
