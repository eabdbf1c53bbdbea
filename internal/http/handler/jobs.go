package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"printconnect/internal/http/middleware"
	"printconnect/internal/model"
	"printconnect/internal/service"
)

type advanceRequest struct {
	Status string `json:"status"`
}

// formBool reads a checkbox-style form value: true, 1, on and yes are true.
func formBool(v string) bool {
	v = strings.TrimSpace(v)
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return strings.EqualFold(v, "on") || strings.EqualFold(v, "yes")
}

func validID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// SubmitJob uploads a file with its print options (multipart/form-data).
//
// @Summary  Submit a print job
// @Tags     jobs
// @Security BearerAuth
// @Accept   multipart/form-data
// @Produce  json
// @Param    file       formData file   true  "document to print"
// @Param    color      formData bool   false "color printing"
// @Param    copies     formData int    false "number of copies"
// @Param    paper_size formData string false "A4, A3, Letter or Legal"
// @Success  201 {object} model.PrintJob
// @Failure  400 {object} errorPayload
// @Failure  403 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Router   /jobs [post]
func SubmitJob(svc service.PrintJobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeServiceError(c, &service.ValidationError{Field: "file", Message: "file is required"})
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		job, err := svc.Submit(c.UserContext(), middleware.IdentityFromCtx(c), service.SubmitInput{
			FileName:    fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Reader:      f,
			Color:       formBool(c.FormValue("color")),
			Copies:      c.FormValue("copies"),
			PaperSize:   c.FormValue("paper_size"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(job)
	}
}

// ListJobs lists the caller's jobs, or every job for operators.
//
// @Summary  List print jobs
// @Tags     jobs
// @Security BearerAuth
// @Produce  json
// @Param    status query string false "all, pending, processing, ready, completed or failed"
// @Param    q      query string false "search file name, owner name and email"
// @Success  200 {object} service.JobListResult
// @Router   /jobs [get]
func ListJobs(svc service.PrintJobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext(), middleware.IdentityFromCtx(c), service.JobFilter{
			Status: c.Query("status"),
			Search: c.Query("q"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetJob returns one job visible to the caller.
//
// @Summary  Get a print job
// @Tags     jobs
// @Security BearerAuth
// @Produce  json
// @Param    id path string true "job id"
// @Success  200 {object} model.PrintJob
// @Failure  404 {object} errorPayload
// @Router   /jobs/{id} [get]
func GetJob(svc service.PrintJobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		job, err := svc.Get(c.UserContext(), middleware.IdentityFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(job)
	}
}

// JobFile redirects to a short-lived download link for the job's file.
//
// @Summary  Download a job's file
// @Tags     jobs
// @Security BearerAuth
// @Param    id path string true "job id"
// @Success  302
// @Failure  404 {object} errorPayload
// @Router   /jobs/{id}/file [get]
func JobFile(svc service.PrintJobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.FileURL(c.UserContext(), middleware.IdentityFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}

// AdvanceJob moves a job to the next status. Operators only.
//
// @Summary  Advance a print job
// @Tags     jobs
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Param    id   path string         true "job id"
// @Param    body body advanceRequest true "target status"
// @Success  200 {object} model.PrintJob
// @Failure  403 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Router   /jobs/{id}/status [patch]
func AdvanceJob(svc service.PrintJobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req advanceRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		target, ok := model.ParseJobStatus(req.Status)
		if !ok {
			return writeServiceError(c, &service.ValidationError{Field: "status", Message: "unknown status"})
		}
		job, err := svc.Advance(c.UserContext(), middleware.IdentityFromCtx(c), id, target)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(job)
	}
}
