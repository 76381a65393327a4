package model

// Stage identifies where a sync run currently is
type Stage string

const (
	StageIdle        Stage = "idle"
	StageValidating  Stage = "validating"
	StageFetching    Stage = "fetching"
	StageDownloading Stage = "downloading"
	StageUploading   Stage = "uploading"
	StageSummarizing Stage = "summarizing"
	StageSucceeded   Stage = "succeeded"
	StageFailed      Stage = "failed"
)

// Progress is a single progress event of a sync run
type Progress struct {
	Stage   Stage
	Message string
	Row     int // 1-based row being processed, 0 when not row-scoped
	Total   int // Total rows, 0 until rows are fetched
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(Progress)

// Report calls f if it is set
func (f ProgressFunc) Report(p Progress) {
	if f != nil {
		f(p)
	}
}
