package pipeline

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/raushankrgupta/fitly-outfits/models"
)

// ContentTypeNDJSON is the media type of the generation stream.
const ContentTypeNDJSON = "application/x-ndjson"

// RecordOutfit and RecordError tag the records of the stream.
const (
	RecordOutfit = "outfit"
	RecordError  = "error"
)

// OutfitRecord is the stream record of a completed item.
type OutfitRecord struct {
	Type             string `json:"type"`
	Index            int    `json:"index"`
	OriginalImage    string `json:"originalImage"`
	GeneratedImage   string `json:"generatedImage"`
	Description      string `json:"description"`
	ModelDescription string `json:"modelDescription"`
	Upscaled         bool   `json:"upscaled"`
	UpscaleStatus    string `json:"upscaleStatus"`
	CollectionID     string `json:"collectionId"`
}

// ItemErrorRecord is the stream record of an abandoned item.
type ItemErrorRecord struct {
	Type          string `json:"type"`
	Index         int    `json:"index"`
	OriginalImage string `json:"originalImage,omitempty"`
	Stage         string `json:"stage,omitempty"`
	Error         string `json:"error"`
}

// FatalRecord ends the stream; nothing follows it.
type FatalRecord struct {
	Error string `json:"error"`
}

// Sink receives the per-item outcomes of a batch.
type Sink interface {
	EmitOutfit(index int, result models.OutfitResult) error
	EmitItemError(index int, originalImage string, err error) error
}

// Emitter writes newline-delimited JSON records and flushes after each one.
// After the first write error every later emit is a no-op returning that error.
type Emitter struct {
	mu      sync.Mutex
	enc     *json.Encoder
	flusher http.Flusher
	err     error
	count   int
}

// NewEmitter wraps w. If w is an http.Flusher each record is flushed immediately.
func NewEmitter(w io.Writer) *Emitter {
	e := &Emitter{enc: json.NewEncoder(w)}
	if f, ok := w.(http.Flusher); ok {
		e.flusher = f
	}
	return e
}

func (e *Emitter) EmitOutfit(index int, r models.OutfitResult) error {
	return e.emit(OutfitRecord{
		Type:             RecordOutfit,
		Index:            index,
		OriginalImage:    r.OriginalImageURL,
		GeneratedImage:   r.GeneratedImageURL,
		Description:      r.Description,
		ModelDescription: r.ModelDescription,
		Upscaled:         r.Upscaled,
		UpscaleStatus:    r.UpscaleStatus,
		CollectionID:     r.CollectionID.Hex(),
	})
}

func (e *Emitter) EmitItemError(index int, originalImage string, err error) error {
	return e.emit(ItemErrorRecord{
		Type:          RecordError,
		Index:         index,
		OriginalImage: originalImage,
		Stage:         StageOf(err),
		Error:         err.Error(),
	})
}

// EmitFatal writes the single batch-level error record.
func (e *Emitter) EmitFatal(message string) error {
	return e.emit(FatalRecord{Error: message})
}

// Count is the number of records written successfully.
func (e *Emitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

func (e *Emitter) emit(record any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	// json.Encoder terminates every value with '\n'
	if err := e.enc.Encode(record); err != nil {
		e.err = err
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	e.count++
	return nil
}
