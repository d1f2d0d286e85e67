package controller

import (
	"docuwise-client/internal/dto"
	"docuwise-client/internal/pkg/serverutils"
	"docuwise-client/pkg/assistant"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	DocChat(ctx *fiber.Ctx) error
	Podcast(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistant *assistant.Assistant
}

func NewAssistantController(a *assistant.Assistant) IAssistantController {
	return &assistantController{assistant: a}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.Chat)
	r.Post("/doc-chat", c.DocChat)
	r.Post("/podcast", c.Podcast)
}

func parseChat(ctx *fiber.Ctx) (dto.ChatRequest, error) {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req, serverutils.ValidateRequest(req)
}

func (c *assistantController) Chat(ctx *fiber.Ctx) error {
	req, err := parseChat(ctx)
	if err != nil {
		return err
	}
	text, err := c.assistant.Chat(ctx.UserContext(), req.Message)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success chat", dto.ChatResponse{Text: text}))
}

func (c *assistantController) DocChat(ctx *fiber.Ctx) error {
	req, err := parseChat(ctx)
	if err != nil {
		return err
	}
	res, err := c.assistant.DocChat(ctx.UserContext(), req.Message)
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success doc chat", res))
}

func (c *assistantController) Podcast(ctx *fiber.Ctx) error {
	res, err := c.assistant.GeneratePodcast(ctx.UserContext())
	if err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate podcast", dto.PodcastResponse{
		Script:   res.Script,
		AudioURL: res.AudioURL,
	}))
}
