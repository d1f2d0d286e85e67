package controller

import (
	"strconv"
	"strings"

	"docuwise-client/internal/dto"
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/internal/pkg/serverutils"
	"docuwise-client/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type IStateController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	SetOnlineMode(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type stateController struct {
	store  *store.Store
	logger logger.ILogger
}

func NewStateController(st *store.Store, log logger.ILogger) IStateController {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &stateController{store: st, logger: log}
}

func (c *stateController) RegisterRoutes(r fiber.Router) {
	r.Get("/state", c.Show)
	r.Put("/settings/online", c.SetOnlineMode)
	r.Get("/logs", c.GetLogs)
}

func (c *stateController) Show(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get state", dto.StateResponse{State: c.store.Snapshot()}))
}

func (c *stateController) SetOnlineMode(ctx *fiber.Ctx) error {
	var req dto.SetOnlineModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	c.store.SetOnlineMode(*req.Online)
	return ctx.JSON(serverutils.SuccessResponse("Success set online mode", dto.StateResponse{State: c.store.Snapshot()}))
}

// GetLogs pages through the application log file, newest first.
func (c *stateController) GetLogs(ctx *fiber.Ctx) error {
	limit, err := strconv.Atoi(ctx.Query("limit", "50"))
	if err != nil || limit < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
	}
	offset, err := strconv.Atoi(ctx.Query("offset", "0"))
	if err != nil || offset < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "offset must not be negative")
	}
	level := strings.ToUpper(ctx.Query("level", ""))

	logs, err := c.logger.GetLogs(level, limit, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", dto.LogsResponse{Logs: logs}))
}
