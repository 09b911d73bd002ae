package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/fitly-outfits/models"
	"github.com/raushankrgupta/fitly-outfits/pipeline"
	"github.com/raushankrgupta/fitly-outfits/store"
	"github.com/raushankrgupta/fitly-outfits/utils"
	"go.uber.org/zap"
)

// Batch-level messages of the generation stream
const (
	MsgUnauthorized       = "Unauthorized"
	MsgNoImages           = "No images provided"
	MsgInvalidBody        = "Invalid request body"
	MsgUserNotFound       = "User not found"
	MsgUserLookupFailed   = "Failed to load user"
	MsgCollectionFailed   = "Failed to create collection"
	maxGenerateBodyBytes  = 1 << 20
	notificationSendLimit = 15 * time.Second
)

// GenerateRequest is the body of a generation batch
type GenerateRequest struct {
	Images []models.GarmentInput `json:"images"`
}

// GenerateHandler streams one NDJSON record per garment as each outfit is generated and stored.
func (h *Handler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(h.Logger, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Generate API]")

	w.Header().Set("Content-Type", pipeline.ContentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	emitter := pipeline.NewEmitter(w)

	fatal := func(status int, message string) {
		utils.AddToLogMessage(&logMessageBuilder, message)
		w.WriteHeader(status)
		if err := emitter.EmitFatal(message); err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to write error record: %v", err))
		}
	}

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		fatal(http.StatusUnauthorized, MsgUnauthorized)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBodyBytes)).Decode(&req); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Decode body: %v", err))
		fatal(http.StatusBadRequest, MsgInvalidBody)
		return
	}
	if len(req.Images) == 0 {
		fatal(http.StatusBadRequest, MsgNoImages)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dbTimeout)
	user, err := h.Store.FindUserByEmail(ctx, identity.Email)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fatal(http.StatusNotFound, MsgUserNotFound)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Find user: %v", err))
			fatal(http.StatusInternalServerError, MsgUserLookupFailed)
		}
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Generating %d outfit(s) for %s", len(req.Images), user.Email))
	w.WriteHeader(http.StatusOK)

	// r.Context() ends when the caller disconnects, which stops generation of the remaining items
	summary, err := h.Batches.Run(r.Context(), user.ID.Hex(), req.Images, emitter)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Batch failed: %v", err))
		if emitErr := emitter.EmitFatal(MsgCollectionFailed); emitErr != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to write error record: %v", emitErr))
		}
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Batch done: collection=%s succeeded=%d failed=%d",
		summary.CollectionID.Hex(), summary.Succeeded, summary.Failed))

	if summary.Succeeded > 0 {
		go h.notifyCollectionReady(context.WithoutCancel(r.Context()), *user, summary)
	}
}

func (h *Handler) notifyCollectionReady(ctx context.Context, user models.User, summary pipeline.BatchSummary) {
	ctx, cancel := context.WithTimeout(ctx, notificationSendLimit)
	defer cancel()
	if err := h.Notifier.CollectionReady(ctx, user, summary.CollectionID.Hex(), summary.Succeeded); err != nil {
		h.Logger.Warn("collection notification failed", zap.String("email", user.Email), zap.Error(err))
	}
}
