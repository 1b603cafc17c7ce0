package controller

import (
	"care-triage-be/internal/dto"
	"care-triage-be/internal/pkg/logger"
	"care-triage-be/internal/pkg/serverutils"
	"care-triage-be/internal/service"
	internalWS "care-triage-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type ITriageController interface {
	RegisterRoutes(r fiber.Router)
	Run(ctx *fiber.Ctx) error
	ShowCase(ctx *fiber.Ctx) error
	LiveFeed(ctx *fiber.Ctx) error
}

type triageController struct {
	triageService service.ITriageService
	hub           *internalWS.Hub
	logger        logger.ILogger
}

func NewTriageController(triageService service.ITriageService, hub *internalWS.Hub, log logger.ILogger) ITriageController {
	return &triageController{
		triageService: triageService,
		hub:           hub,
		logger:        log,
	}
}

func (c *triageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/triage/v1")
	h.Post("run", c.Run)
	h.Get("cases/:id", c.ShowCase)
	h.Get("cases/:id/live", c.LiveFeed)
}

func (c *triageController) Run(ctx *fiber.Ctx) error {
	var req dto.RunTriageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.triageService.Run(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success run triage", res))
}

func (c *triageController) ShowCase(ctx *fiber.Ctx) error {
	id, err := caseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.triageService.GetCase(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show case", res))
}

// LiveFeed upgrades to a websocket that receives the case's stage frames.
func (c *triageController) LiveFeed(ctx *fiber.Ctx) error {
	id, err := caseIdParam(ctx)
	if err != nil {
		return err
	}
	if _, err := c.triageService.GetCase(ctx.UserContext(), id); err != nil {
		return err
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.logger.Info("Hub", "Starting live feed session", map[string]interface{}{"case_id": id.String()})
			internalWS.ServeWs(c.hub, conn, id)
			c.logger.Info("Hub", "Live feed session ended", map[string]interface{}{"case_id": id.String()})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

func caseIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid case id")
	}
	return id, nil
}
