package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"videothingy/vault/internal/library"
	"videothingy/vault/utils"
)

// UploadField is the multipart field carrying the video files.
const UploadField = "videos"

// StreamURLResponse carries a presigned playback URL.
type StreamURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

// UploadVideos godoc
// @Summary Upload videos into a folder
// @Description Accepts up to 50 files in the "videos" multipart field. Each file is stored, probed for its duration and linked to the folder.
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param folderId path string true "Folder ID"
// @Param videos formData file true "Video files"
// @Success 201 {array} models.Video
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /videos/upload/{folderId} [post]
func (h *ApplicationHandler) UploadVideos(c *fiber.Ctx) error {
	folderID := c.Params("folderId")

	form, err := c.MultipartForm()
	if err != nil {
		h.Logger.Warnf("Error reading multipart form: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Expected a multipart form")
	}
	headers := form.File[UploadField]
	if len(headers) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No files uploaded")
	}
	if max := h.Library.MaxUploadFiles(); len(headers) > max {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("At most %d files per upload", max))
	}

	files := make([]library.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := readFormFile(fh)
		if err != nil {
			h.Logger.Errorf("Error reading uploaded file %s: %v", fh.Filename, err)
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Could not read uploaded file "+fh.Filename)
		}
		files = append(files, f)
	}

	h.Logger.WithFields(logrus.Fields{"folder_id": folderID, "files": len(files)}).Info("Uploading videos")
	videos, err := h.Library.Upload(c.UserContext(), folderID, files)
	if err != nil {
		return h.fail(c, err, "Folder", "upload videos")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, videos)
}

func readFormFile(fh *multipart.FileHeader) (library.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return library.UploadFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return library.UploadFile{}, err
	}
	return library.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// GetStreamURL godoc
// @Summary Presign a playback URL
// @Description The URL is valid for two hours and stops working at expiresAt.
// @Tags videos
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} StreamURLResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /videos/stream/{videoId} [get]
func (h *ApplicationHandler) GetStreamURL(c *fiber.Ctx) error {
	signed, err := h.Library.GetStreamURL(c.UserContext(), c.Params("videoId"))
	if err != nil {
		return h.fail(c, err, "Video", "generate stream URL")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, StreamURLResponse{
		URL:       signed.URL,
		ExpiresAt: signed.ExpiresAt.UTC().Format(timeLayout),
	})
}

// GetVideosInFolder godoc
// @Summary List the videos of a folder
// @Tags videos
// @Produce json
// @Param folderId path string true "Folder ID"
// @Success 200 {array} models.Video
// @Failure 500 {object} ErrorResponse
// @Router /videos/folder/{folderId} [get]
func (h *ApplicationHandler) GetVideosInFolder(c *fiber.Ctx) error {
	videos, err := h.Library.GetVideosInFolder(c.UserContext(), c.Params("folderId"))
	if err != nil {
		return h.fail(c, err, "Folder", "fetch videos")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, videos)
}

// DeleteVideo godoc
// @Summary Delete a video
// @Tags videos
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /videos/{videoId} [delete]
func (h *ApplicationHandler) DeleteVideo(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if err := h.Library.DeleteVideo(c.UserContext(), videoID); err != nil {
		return h.fail(c, err, "Video", "delete video")
	}
	h.Logger.Infof("Video %s deleted", videoID)
	return utils.RespondWithJSON(c, fiber.StatusOK, MessageResponse{Message: "Video deleted successfully"})
}

func decodeParam(c *fiber.Ctx, name string) (string, error) {
	return url.PathUnescape(c.Params(name))
}
