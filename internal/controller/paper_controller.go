package controller

import (
	"errors"
	"strconv"

	"paperinsight-be/internal/dto"
	"paperinsight-be/internal/pkg/serverutils"
	"paperinsight-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaperController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
	Insight(ctx *fiber.Ctx) error
}

type paperController struct {
	paperService service.IPaperService
}

func NewPaperController(paperService service.IPaperService) IPaperController {
	return &paperController{
		paperService: paperService,
	}
}

func (c *paperController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/paper/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post(":id/analyze", c.Analyze)
	h.Get(":id/insight", c.Insight)
}

func paperIdParam(ctx *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid paper ID")
	}
	return id, nil
}

func (c *paperController) Analyze(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx)

	paperId, err := paperIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.AnalyzePaperRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.paperService.Analyze(ctx.Context(), userId, paperId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Analysis queued", res))
}

func (c *paperController) Insight(ctx *fiber.Ctx) error {
	userId := serverutils.UserID(ctx)

	paperId, err := paperIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.paperService.GetInsight(ctx.Context(), userId, paperId)
	if err != nil {
		if errors.Is(err, service.ErrInsightNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "No insight for this paper yet")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show insight", res))
}
