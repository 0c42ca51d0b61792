package bintype

// ProgressEvent represents a progress update during hashing, extraction,
// merging or splitting.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Name is the source or entry currently being processed, if applicable.
	Name string

	// BytesDone is the number of bytes completed for Name.
	BytesDone uint64

	// BytesTotal is the total bytes for Name.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of files completed.
	FilesDone int

	// FilesTotal is the total number of files.
	// Zero indicates the total is unknown.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages.
const (
	// StageHashing indicates a source is being hashed.
	StageHashing ProgressStage = iota

	// StageExtracting indicates archive entries are being decoded.
	StageExtracting

	// StageMerging indicates sources are being concatenated.
	StageMerging

	// StageSplitting indicates a source is being partitioned.
	StageSplitting
)

// String returns a human-readable name for the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageHashing:
		return "hashing"
	case StageExtracting:
		return "extracting"
	case StageMerging:
		return "merging"
	case StageSplitting:
		return "splitting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
