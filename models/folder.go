package models

// Folder is a named grouping of videos. Videos holds the ids of the videos
// filed under it, in upload order.
type Folder struct {
	ID     string   `json:"_id"`
	Name   string   `json:"name"`
	Videos []string `json:"videos"`
}

// FolderWithVideos is the listing representation of a folder, with its
// video records embedded instead of referenced.
type FolderWithVideos struct {
	ID     string  `json:"_id"`
	Name   string  `json:"name"`
	Videos []Video `json:"videos"`
}
