package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"ecocycle-backend/domain"
	"ecocycle-backend/internal/api/presenters"
	"ecocycle-backend/pkg/classifier"
	"ecocycle-backend/pkg/waste"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	WasteHandler interface {
		SubmitWastePost(c *fiber.Ctx) error
		AnalyzeWasteImage(c *fiber.Ctx) error
		GetWastePosts(c *fiber.Ctx) error
		GetFilteredWastePosts(c *fiber.Ctx) error
		GetWastePostImage(c *fiber.Ctx) error
	}

	wasteHandler struct {
		wasteService waste.WasteService
		validator    *validator.Validate
	}
)

func NewWasteHandler(wasteService waste.WasteService, validator *validator.Validate) WasteHandler {
	return &wasteHandler{
		wasteService: wasteService,
		validator:    validator,
	}
}

func (h *wasteHandler) SubmitWastePost(c *fiber.Ctx) error {
	req := new(domain.SubmitWastePostRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	req.Image = file

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubmitWastePost, err)
	}
	if !domain.ValidProviderType(req.ProviderType) {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubmitWastePost, domain.ErrInvalidProviderType)
	}

	res, err := h.wasteService.SubmitWastePost(c.Context(), *req)
	if err != nil {
		var subErr *domain.SubmissionError
		if errors.As(err, &subErr) {
			switch subErr.Stage {
			case domain.StageRejected:
				// A valid business outcome: the model says this is not
				// organic waste. Surface its stated reason.
				return presenters.ErrorResponse(c, fiber.StatusUnprocessableEntity, domain.MessageWasteRejected, errors.New(subErr.Reason))
			case domain.StageClassification:
				return presenters.ErrorResponse(c, fiber.StatusBadGateway, domain.MessageFailedAnalyzeImage, domain.ErrClassificationFailed)
			case domain.StageStorage:
				return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedSubmitWastePost, nil)
			}
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubmitWastePost, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessSubmitWastePost)
}

func (h *wasteHandler) AnalyzeWasteImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	opened, err := file.Open()
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	defer opened.Close()

	imageData, err := io.ReadAll(opened)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	result, err := h.wasteService.AnalyzeWasteImage(c.Context(), imageData, classifier.DetectMimeType(file))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadGateway, domain.MessageFailedAnalyzeImage, domain.ErrClassificationFailed)
	}

	return presenters.SuccessResponse(c, result, fiber.StatusOK, domain.MessageSuccessAnalyzeImage)
}

// GetWastePosts serves the legacy map feed: a bare array, newest first,
// image bytes excluded.
func (h *wasteHandler) GetWastePosts(c *fiber.Ctx) error {
	posts, err := h.wasteService.BrowseWastePosts(c.Context(), nil)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetWastePosts, nil)
	}
	return c.JSON(posts)
}

// GetFilteredWastePosts filters by any of the comma-separated suitability
// tags in ?filters=. Empty or absent filters behaves as "all posts".
func (h *wasteHandler) GetFilteredWastePosts(c *fiber.Ctx) error {
	var tags []string
	if raw := c.Query("filters"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	posts, err := h.wasteService.BrowseWastePosts(c.Context(), tags)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetWastePosts, nil)
	}
	return c.JSON(posts)
}

func (h *wasteHandler) GetWastePostImage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	blob, err := h.wasteService.GetWastePostImage(c.Context(), uint(id))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetWastePosts, domain.ErrPostNotFound)
	}

	c.Set(fiber.HeaderContentType, http.DetectContentType(blob))
	return c.Send(blob)
}
