package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the API under router (normally the /api group).
func (h *ApplicationHandler) RegisterRoutes(router fiber.Router) {
	folders := router.Group("/folders")
	folders.Get("", h.ListFolders)
	folders.Post("", h.CreateFolder)
	folders.Get("/name/:name", h.GetFolderByName)
	folders.Delete("/:folderId", h.DeleteFolder)

	videos := router.Group("/videos")
	videos.Post("/upload/:folderId", h.UploadVideos)
	videos.Get("/stream/:videoId", h.GetStreamURL)
	videos.Get("/folder/:folderId", h.GetVideosInFolder)
	videos.Post("/generate-captions/:videoId", h.GenerateCaptions)
	videos.Get("/captions/status/:videoId", h.GetCaptionStatus)
	videos.Get("/captions/:videoId", h.GetCaptionURL)
	videos.Delete("/:videoId", h.DeleteVideo)
}
