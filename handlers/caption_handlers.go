package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"videothingy/vault/utils"
)

const timeLayout = time.RFC3339

type GenerateCaptionsResponse struct {
	Message    string `json:"message"`
	CaptionKey string `json:"captionKey"`
}

// CaptionURLResponse has a null captionUrl until captions are generated.
type CaptionURLResponse struct {
	CaptionURL *string `json:"captionUrl"`
	ExpiresAt  *string `json:"expiresAt,omitempty"`
}

type CaptionStatusResponse struct {
	CaptionsReady bool `json:"captionsReady"`
}

// GenerateCaptions godoc
// @Summary Generate captions for a video
// @Description Runs speech-to-text on the video and stores a WebVTT track. The request blocks until transcription finishes.
// @Tags captions
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} GenerateCaptionsResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /videos/generate-captions/{videoId} [post]
func (h *ApplicationHandler) GenerateCaptions(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	h.Logger.Infof("Generating captions for video %s", videoID)

	key, err := h.Library.GenerateCaptions(c.UserContext(), videoID)
	if err != nil {
		return h.fail(c, err, "Video", "generate captions")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, GenerateCaptionsResponse{
		Message:    "Captions generated successfully",
		CaptionKey: key,
	})
}

// GetCaptionURL godoc
// @Summary Presign the caption track of a video
// @Description captionUrl is null when no captions have been generated yet.
// @Tags captions
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} CaptionURLResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /videos/captions/{videoId} [get]
func (h *ApplicationHandler) GetCaptionURL(c *fiber.Ctx) error {
	signed, err := h.Library.GetCaptionURL(c.UserContext(), c.Params("videoId"))
	if err != nil {
		return h.fail(c, err, "Video", "fetch captions")
	}

	resp := CaptionURLResponse{}
	if signed != nil {
		expires := signed.ExpiresAt.UTC().Format(timeLayout)
		resp.CaptionURL = &signed.URL
		resp.ExpiresAt = &expires
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, resp)
}

// GetCaptionStatus godoc
// @Summary Report whether captions are ready
// @Tags captions
// @Produce json
// @Param videoId path string true "Video ID"
// @Success 200 {object} CaptionStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /videos/captions/status/{videoId} [get]
func (h *ApplicationHandler) GetCaptionStatus(c *fiber.Ctx) error {
	ready, err := h.Library.GetCaptionStatus(c.UserContext(), c.Params("videoId"))
	if err != nil {
		return h.fail(c, err, "Video", "fetch caption status")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, CaptionStatusResponse{CaptionsReady: ready})
}
