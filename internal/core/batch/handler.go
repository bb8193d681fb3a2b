package batch

import (
	"gifswap/internal/apperror"
	"gifswap/internal/core/job"
	"gifswap/internal/platform/api"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	jobs    *job.JobService
	service *Service
}

func NewHandler(jobs *job.JobService, service *Service) *Handler {
	return &Handler{jobs: jobs, service: service}
}

func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var req api.BatchCreateRequest
	if err := c.BodyParser(&req); err != nil {
		e := apperror.New(apperror.KindBadRequest, "invalid body")
		return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
	}

	id, err := h.service.Enqueue(c.Context(), req)
	if err != nil {
		e := apperror.Classify(err)
		return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
	}
	return c.JSON(api.BatchCreateResponse{Success: true, JobID: id})
}

func (h *Handler) HandleGet(c *fiber.Ctx) error {
	id := c.Params("jobId")
	j, err := h.jobs.GetJobStatus(c.Context(), id)
	if err != nil {
		e := apperror.New(apperror.KindNotFound, "batch job not found")
		return c.Status(e.Kind.HTTPStatus()).JSON(api.ErrorBody(e))
	}

	resp := api.BatchStatusResponse{
		Success: true,
		JobID:   id,
		Status:  string(j.Status),
		Slots:   []api.BatchSlot{},
	}
	if data := j.Results.BatchResult; data != nil {
		resp.CompletedCount = data.CompletedCount
		resp.Total = data.Total
		resp.StatusText = data.StatusText
		resp.Summary = data.Summary
		resp.Slots = make([]api.BatchSlot, len(data.Slots))
		for i, s := range data.Slots {
			slot := api.BatchSlot{Index: s.Index, State: s.State, MediaURL: s.MediaURL}
			if s.State == string(SlotFailed) {
				kind := apperror.Kind(s.ErrorType)
				d := apperror.Describe(kind)
				slot.Error = &api.SlotError{
					ErrorType: string(kind),
					Title:     d.Title,
					Message:   d.Message,
					Action:    d.Action,
				}
			}
			resp.Slots[i] = slot
		}
	}
	return c.JSON(resp)
}
