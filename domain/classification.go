package domain

import (
	"errors"
	"fmt"
)

var (
	ErrClassificationFailed = errors.New("classification failed")
	ErrNotOrganicWaste      = errors.New("image is not organic waste")
)

// ClassificationErrorKind separates a reply we could not parse from a call
// that never produced a usable reply at all.
type ClassificationErrorKind string

const (
	ParseFailure   ClassificationErrorKind = "parse_failure"
	ServiceFailure ClassificationErrorKind = "service_failure"
)

// ClassificationError is returned by the classifier adapter. It is never
// retried here; the submitting user may retry the whole submission.
type ClassificationError struct {
	Kind    ClassificationErrorKind
	Detail  string
	RawText string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification %s: %s", e.Kind, e.Detail)
}

func (e *ClassificationError) Unwrap() error { return ErrClassificationFailed }

// ClassificationResult is the validated shape of the vision model's reply.
// It is transient: the ingestion flow embeds it into the post's AIAnalysis
// column and it is never persisted on its own.
type ClassificationResult struct {
	IsOrganicWaste    bool     `json:"is_organic_waste"`
	RejectionReason   string   `json:"rejection_reason,omitempty"`
	MainComposition   string   `json:"main_composition"`
	EstimatedWeightKg float64  `json:"estimated_weight_kg"`
	SuitabilityTags   []string `json:"suitability_tags"`
	SafetyWarning     string   `json:"safety_warning"`
	HandlingTip       string   `json:"handling_tip"`
}

// SubmissionStage identifies where a submission stopped.
type SubmissionStage string

const (
	StageClassification SubmissionStage = "classification"
	StageRejected       SubmissionStage = "rejected"
	StageStorage        SubmissionStage = "storage"
)

// SubmissionError wraps every non-success outcome of the ingestion flow.
// StageRejected is a valid business outcome, not a fault: the model looked
// at the image and said it is not organic waste.
type SubmissionError struct {
	Stage  SubmissionStage
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("submission failed at %s: %s", e.Stage, e.Reason)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
