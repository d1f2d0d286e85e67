package controller

import (
	"docuwise-client/internal/dto"
	"docuwise-client/internal/pkg/serverutils"
	"docuwise-client/pkg/navigation"
	"docuwise-client/pkg/store"
	"docuwise-client/pkg/viewer"

	"github.com/gofiber/fiber/v2"
)

type IViewerController interface {
	RegisterRoutes(r fiber.Router)
	Event(ctx *fiber.Ctx) error
	ActivateSnippet(ctx *fiber.Ctx) error
}

type viewerController struct {
	session    *viewer.Session
	navigation *navigation.Controller
	store      *store.Store
}

func NewViewerController(session *viewer.Session, nav *navigation.Controller, st *store.Store) IViewerController {
	return &viewerController{session: session, navigation: nav, store: st}
}

func (c *viewerController) RegisterRoutes(r fiber.Router) {
	r.Post("/viewer/events", c.Event)
	r.Post("/snippets/activate", c.ActivateSnippet)
}

// Event accepts viewer callbacks posted over HTTP instead of the socket.
func (c *viewerController) Event(ctx *fiber.Ctx) error {
	var req dto.ViewerEventRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ev := viewer.Event{Type: viewer.EventType(req.Type), Text: req.Text, Pages: req.Pages}
	if err := c.session.HandleEvent(ctx.UserContext(), req.HandleID, ev); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Event accepted", nil))
}

func (c *viewerController) ActivateSnippet(ctx *fiber.Ctx) error {
	var req dto.ActivateSnippetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	outcome, ok := c.navigation.ActivateByKey(req.Key)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "snippet not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success activate snippet", dto.ActivateSnippetResponse{
		Outcome:          string(outcome),
		ActiveDocumentID: c.store.Snapshot().ActiveDocumentID,
	}))
}
