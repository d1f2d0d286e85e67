package controller

import (
	"mime/multipart"

	"docuwise-client/internal/dto"
	"docuwise-client/internal/pkg/serverutils"
	"docuwise-client/internal/service"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/store"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Activate(ctx *fiber.Ctx) error
}

type documentController struct {
	service *service.DocumentService
	store   *store.Store
}

func NewDocumentController(svc *service.DocumentService, st *store.Store) IDocumentController {
	return &documentController{service: svc, store: st}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Get("", c.GetAll)
	h.Post("refresh", c.Refresh)
	h.Post("upload", c.Upload)
	h.Delete(":id", c.Delete)
	h.Put(":id/active", c.Activate)
}

func (c *documentController) list() dto.DocumentListResponse {
	return dto.NewDocumentListResponse(c.store.Snapshot())
}

func (c *documentController) GetAll(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get all documents", c.list()))
}

func (c *documentController) Refresh(ctx *fiber.Ctx) error {
	if err := c.service.Refresh(ctx.UserContext()); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success refresh documents", c.list()))
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	historical := ctx.FormValue("historical") == "true"

	headers := form.File["files"]
	files := make([]backend.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer func(f multipart.File) { f.Close() }(f)
		files = append(files, backend.UploadFile{Name: fh.Filename, Content: f})
	}

	if err := c.service.Upload(ctx.UserContext(), files, historical); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success upload documents", c.list()))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete document", c.list()))
}

func (c *documentController) Activate(ctx *fiber.Ctx) error {
	if err := c.service.Select(ctx.Params("id")); err != nil {
		return httpError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success activate document", c.list()))
}
