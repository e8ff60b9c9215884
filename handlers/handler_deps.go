package handlers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"videothingy/vault/internal/library"
	"videothingy/vault/middleware"
	"videothingy/vault/models"
	"videothingy/vault/utils"
)

// Library is the set of operations the handlers need from the service layer.
// *library.Service implements it.
type Library interface {
	CreateFolder(ctx context.Context, name string) (*models.Folder, error)
	ListFolders(ctx context.Context) ([]models.FolderWithVideos, error)
	GetFolderByName(ctx context.Context, name string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, folderID string) error

	Upload(ctx context.Context, folderID string, files []library.UploadFile) ([]models.Video, error)
	MaxUploadFiles() int
	GetStreamURL(ctx context.Context, videoID string) (*library.SignedURL, error)
	GetVideosInFolder(ctx context.Context, folderID string) ([]models.Video, error)
	DeleteVideo(ctx context.Context, videoID string) error

	GenerateCaptions(ctx context.Context, videoID string) (string, error)
	GetCaptionURL(ctx context.Context, videoID string) (*library.SignedURL, error)
	GetCaptionStatus(ctx context.Context, videoID string) (bool, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Library  Library
	Logger   logrus.FieldLogger
	Validate *validator.Validate
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(lib Library, logger logrus.FieldLogger) *ApplicationHandler {
	return &ApplicationHandler{
		Library:  lib,
		Logger:   logger,
		Validate: validator.New(),
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges an operation that returns no data.
type MessageResponse struct {
	Message string `json:"message"`
}

// fail logs err and writes the matching status: 404 "<resource> not found",
// 400 with the validation message, or 500 "Failed to <action>".
func (h *ApplicationHandler) fail(c *fiber.Ctx, err error, resource, action string) error {
	log := h.Logger.WithField("request_id", middleware.RequestID(c))

	switch {
	case errors.Is(err, library.ErrNotFound):
		log.Warnf("Failed to %s: %v", action, err)
		return utils.RespondWithError(c, fiber.StatusNotFound, resource+" not found")
	case errors.Is(err, library.ErrValidation):
		log.Warnf("Failed to %s: %v", action, err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	}

	log.Errorf("Failed to %s: %v", action, err)
	return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to "+action)
}
