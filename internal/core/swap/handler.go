package swap

import (
	"gifswap/internal/apperror"
	"gifswap/internal/platform/api"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler { return &Handler{service: service} }

func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req api.SwapCreateRequest
	if err := c.BodyParser(&req); err != nil {
		e := apperror.New(apperror.KindBadRequest, "invalid body")
		return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
	}

	job, err := h.service.Submit(c.Context(), req.SourceImageData, req.TargetGifUrl)
	if err != nil {
		e := apperror.Classify(err)
		return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
	}
	return c.JSON(api.SwapCreateResponse{Success: true, PredictionID: job.ID, Status: job.State.Wire()})
}

func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	id := c.Params("predictionId")
	if id == "" {
		e := apperror.New(apperror.KindBadRequest, "predictionId is required")
		return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
	}

	job, err := h.service.provider.Status(c.Context(), id)
	if err != nil {
		e := apperror.Classify(err)
		return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
	}

	resp := api.SwapStatusResponse{ID: job.ID, Status: job.State.Wire()}
	if job.OutputURL != "" {
		out := job.OutputURL
		resp.Output = &out
	}
	if job.ErrorMsg != "" {
		msg := job.ErrorMsg
		resp.Error = &msg
	}
	return c.JSON(resp)
}
