// processmate/types/structured.go
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Intent string

const (
	IntentDocument Intent = "document"
	IntentProcess  Intent = "process"
	IntentReminder Intent = "reminder"
	IntentGeneral  Intent = "general"
)

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

type DocumentType string

const (
	DocumentReport   DocumentType = "report"
	DocumentMemo     DocumentType = "memo"
	DocumentLetter   DocumentType = "letter"
	DocumentProposal DocumentType = "proposal"
	DocumentNotes    DocumentType = "notes"
	DocumentOther    DocumentType = "other"
)

const (
	ParseErrorTitle        = "Response"
	ParseErrorSummary      = "The assistant replied with unstructured text"
	ParseErrorConfidence   = 0.5
	ValidationErrorTitle   = "Validation Error"
	ValidationErrorSummary = "Response did not match the expected format"
	ValidationConfidence   = 0.1
)

var ErrInvalidJSON = errors.New("response is not valid JSON")

// ValidationError reports JSON that parsed but does not fit StructuredResponse.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "structured response failed validation: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Content is the intent-specific payload of a StructuredResponse. The
// concrete type always agrees with the response's Intent.
type Content interface {
	Intent() Intent
}

type StructuredResponse struct {
	Intent     Intent  `json:"intent"`
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Content    Content `json:"content"`
	Confidence float64 `json:"confidence"`
}

type ProcessStep struct {
	Step        int        `json:"step"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

type ProcessData struct {
	Steps             []ProcessStep `json:"steps"`
	EstimatedDuration string        `json:"estimatedDuration"`
}

type DocumentSection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type DocumentData struct {
	DocumentType DocumentType      `json:"documentType"`
	Sections     []DocumentSection `json:"sections"`
}

type ReminderData struct {
	EventTitle string  `json:"eventTitle"`
	Date       *string `json:"date"`
	Notes      string  `json:"notes"`
}

type GeneralData struct {
	Response string `json:"response"`
}

func (ProcessData) Intent() Intent  { return IntentProcess }
func (DocumentData) Intent() Intent { return IntentDocument }
func (ReminderData) Intent() Intent { return IntentReminder }
func (GeneralData) Intent() Intent  { return IntentGeneral }

// ParseErrorFallback wraps text that could not be parsed as JSON at all.
func ParseErrorFallback(text string) StructuredResponse {
	return StructuredResponse{
		Intent:     IntentGeneral,
		Title:      ParseErrorTitle,
		Summary:    ParseErrorSummary,
		Content:    GeneralData{Response: text},
		Confidence: ParseErrorConfidence,
	}
}

// ValidationErrorFallback wraps JSON text that failed schema validation.
func ValidationErrorFallback(text string) StructuredResponse {
	return StructuredResponse{
		Intent:     IntentGeneral,
		Title:      ValidationErrorTitle,
		Summary:    ValidationErrorSummary,
		Content:    GeneralData{Response: text},
		Confidence: ValidationConfidence,
	}
}

// ParseStructuredResponse parses and validates model output. Invalid JSON
// yields an error matching ErrInvalidJSON; well-formed JSON of the wrong
// shape yields a *ValidationError.
func ParseStructuredResponse(text string) (StructuredResponse, error) {
	data := []byte(text)
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return StructuredResponse{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return decodeStructured(data)
}

func (r *StructuredResponse) UnmarshalJSON(data []byte) error {
	decoded, err := decodeStructured(data)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

var validate = validator.New()

var jsonNull = []byte("null")

// Wire shapes use pointers so that missing and null fields fail `required`.
type responseWire struct {
	Intent     *Intent         `json:"intent" validate:"required,oneof=document process reminder general"`
	Title      *string         `json:"title" validate:"required"`
	Summary    *string         `json:"summary" validate:"required"`
	Content    json.RawMessage `json:"content" validate:"required"`
	Confidence *float64        `json:"confidence" validate:"required,gte=0,lte=1"`
}

type processStepWire struct {
	Step        *int        `json:"step" validate:"required,gte=1"`
	Description *string     `json:"description" validate:"required"`
	Status      *StepStatus `json:"status" validate:"required,oneof=pending in_progress completed"`
}

type processWire struct {
	Steps             []processStepWire `json:"steps" validate:"required,dive"`
	EstimatedDuration *string           `json:"estimatedDuration" validate:"required"`
}

type sectionWire struct {
	Heading *string `json:"heading" validate:"required"`
	Body    *string `json:"body" validate:"required"`
}

type documentWire struct {
	DocumentType *DocumentType `json:"documentType" validate:"required,oneof=report memo letter proposal notes other"`
	Sections     []sectionWire `json:"sections" validate:"required,dive"`
}

type reminderWire struct {
	EventTitle *string         `json:"eventTitle" validate:"required"`
	Date       json.RawMessage `json:"date" validate:"required"`
	Notes      *string         `json:"notes" validate:"required"`
}

type generalWire struct {
	Response *string `json:"response" validate:"required"`
}

func decodeStructured(data []byte) (StructuredResponse, error) {
	var w responseWire
	if err := decodeAndValidate(data, &w); err != nil {
		return StructuredResponse{}, err
	}
	content, err := decodeContent(*w.Intent, w.Content)
	if err != nil {
		return StructuredResponse{}, err
	}
	return StructuredResponse{
		Intent:     *w.Intent,
		Title:      *w.Title,
		Summary:    *w.Summary,
		Content:    content,
		Confidence: *w.Confidence,
	}, nil
}

func decodeContent(intent Intent, raw json.RawMessage) (Content, error) {
	if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
		return nil, &ValidationError{Err: errors.New("content must not be null")}
	}
	switch intent {
	case IntentProcess:
		var w processWire
		if err := decodeAndValidate(raw, &w); err != nil {
			return nil, err
		}
		steps := make([]ProcessStep, 0, len(w.Steps))
		for _, s := range w.Steps {
			steps = append(steps, ProcessStep{Step: *s.Step, Description: *s.Description, Status: *s.Status})
		}
		return ProcessData{Steps: steps, EstimatedDuration: *w.EstimatedDuration}, nil
	case IntentDocument:
		var w documentWire
		if err := decodeAndValidate(raw, &w); err != nil {
			return nil, err
		}
		sections := make([]DocumentSection, 0, len(w.Sections))
		for _, s := range w.Sections {
			sections = append(sections, DocumentSection{Heading: *s.Heading, Body: *s.Body})
		}
		return DocumentData{DocumentType: *w.DocumentType, Sections: sections}, nil
	case IntentReminder:
		var w reminderWire
		if err := decodeAndValidate(raw, &w); err != nil {
			return nil, err
		}
		var date *string
		if !bytes.Equal(bytes.TrimSpace(w.Date), jsonNull) {
			var d string
			if err := json.Unmarshal(w.Date, &d); err != nil {
				return nil, &ValidationError{Err: fmt.Errorf("date: %w", err)}
			}
			date = &d
		}
		return ReminderData{EventTitle: *w.EventTitle, Date: date, Notes: *w.Notes}, nil
	case IntentGeneral:
		var w generalWire
		if err := decodeAndValidate(raw, &w); err != nil {
			return nil, err
		}
		return GeneralData{Response: *w.Response}, nil
	}
	return nil, &ValidationError{Err: fmt.Errorf("unknown intent %q", intent)}
}

func decodeAndValidate(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return &ValidationError{Err: err}
	}
	if err := validate.Struct(dst); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
