package binkit

import "github.com/meigma/binkit/internal/bintype"

// Re-export progress types from internal/bintype.
type (
	// ProgressEvent represents a progress update during hashing, merging,
	// splitting or extraction.
	ProgressEvent = bintype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = bintype.ProgressStage

	// ProgressFunc receives progress updates during operations.
	// Implementations must be safe for concurrent calls.
	ProgressFunc = bintype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageHashing indicates file content is being digested.
	StageHashing = bintype.StageHashing

	// StageExtracting indicates archive entries are being decoded or written.
	StageExtracting = bintype.StageExtracting

	// StageMerging indicates parts are being concatenated.
	StageMerging = bintype.StageMerging

	// StageSplitting indicates a stream is being cut into parts.
	StageSplitting = bintype.StageSplitting
)
