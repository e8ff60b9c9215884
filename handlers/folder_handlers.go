package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"videothingy/vault/utils"
)

// CreateFolderRequest is the body of POST /folders.
type CreateFolderRequest struct {
	Name string `json:"name" validate:"required"`
}

// ListFolders godoc
// @Summary List folders
// @Description Returns every folder with its videos embedded, sorted by name.
// @Tags folders
// @Produce json
// @Success 200 {array} models.FolderWithVideos
// @Failure 500 {object} ErrorResponse
// @Router /folders [get]
func (h *ApplicationHandler) ListFolders(c *fiber.Ctx) error {
	folders, err := h.Library.ListFolders(c.UserContext())
	if err != nil {
		return h.fail(c, err, "Folder", "fetch folders")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, folders)
}

// CreateFolder godoc
// @Summary Create a folder
// @Tags folders
// @Accept json
// @Produce json
// @Param folder body CreateFolderRequest true "Folder to create"
// @Success 201 {object} models.Folder
// @Failure 400 {object} ErrorResponse "Missing name"
// @Failure 500 {object} ErrorResponse
// @Router /folders [post]
func (h *ApplicationHandler) CreateFolder(c *fiber.Ctx) error {
	req := new(CreateFolderRequest)
	if err := c.BodyParser(req); err != nil {
		h.Logger.Warnf("Error parsing folder payload: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.Validate.Struct(req); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(utils.FormatValidationErrors(err), ", "))
	}

	folder, err := h.Library.CreateFolder(c.UserContext(), req.Name)
	if err != nil {
		return h.fail(c, err, "Folder", "create folder")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, folder)
}

// GetFolderByName godoc
// @Summary Find a folder by exact name
// @Tags folders
// @Produce json
// @Param name path string true "Folder name"
// @Success 200 {object} models.Folder
// @Failure 404 {object} ErrorResponse
// @Router /folders/name/{name} [get]
func (h *ApplicationHandler) GetFolderByName(c *fiber.Ctx) error {
	name, err := decodeParam(c, "name")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid folder name")
	}

	folder, err := h.Library.GetFolderByName(c.UserContext(), name)
	if err != nil {
		return h.fail(c, err, "Folder", "fetch folder")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, folder)
}

// DeleteFolder godoc
// @Summary Delete a folder and all of its videos
// @Description Removes every video's stored bytes and record, then the folder.
// @Tags folders
// @Produce json
// @Param folderId path string true "Folder ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /folders/{folderId} [delete]
func (h *ApplicationHandler) DeleteFolder(c *fiber.Ctx) error {
	folderID := c.Params("folderId")
	if err := h.Library.DeleteFolder(c.UserContext(), folderID); err != nil {
		return h.fail(c, err, "Folder", "delete folder")
	}
	h.Logger.Infof("Folder %s deleted", folderID)
	return utils.RespondWithJSON(c, fiber.StatusOK, MessageResponse{Message: "Folder and its videos deleted successfully"})
}
