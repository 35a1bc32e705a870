package models

// Stage is a step of the commit state machine
type Stage string

const (
	StageResolving       Stage = "resolving"
	StageFormatting      Stage = "formatting"
	StageUploadingAssets Stage = "uploading_assets"
	StageAppending       Stage = "appending"
	StageDone            Stage = "done"
)

// AddEntryRequest is the input of one commit
type AddEntryRequest struct {
	Category Category `json:"category"`
	URL      string   `json:"url"`
	Note     string   `json:"note"`
}

// CommitResult describes a successful commit
type CommitResult struct {
	PostID       string   `json:"postId"`
	Category     Category `json:"category"`
	DocumentPath string   `json:"documentPath"`
	Paths        []string `json:"commits"` // asset paths followed by the document path
	Uploaded     int      `json:"uploaded"`
	Attempts     int      `json:"attempts"`
	Stage        Stage    `json:"stage"`
}
