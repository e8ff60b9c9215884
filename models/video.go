package models

// Video describes one stored media file. StorageKey addresses the bytes in the
// object store and is serialised as "url" to stay compatible with existing clients.
type Video struct {
	ID            string  `json:"_id"`
	Name          string  `json:"name"`
	StorageKey    string  `json:"url"`
	Size          int64   `json:"size"`     // Size in bytes
	Duration      float64 `json:"duration"` // Duration in seconds
	FolderID      string  `json:"folder"`
	CaptionsReady bool    `json:"captionsReady"`
}

// CaptionKey is the deterministic object key of the video's subtitle track.
func CaptionKey(videoID string) string {
	return "captions/" + videoID + ".vtt"
}
