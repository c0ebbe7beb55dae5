package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/curatr/internal/errors"
	"github.com/hpungsan/curatr/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// Request types for each tool

// RecipientRequest carries a recipient id and/or name.
type RecipientRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// GiftCountRequest represents the arguments for recipient_gift_count.
type GiftCountRequest struct {
	RecipientID string `json:"recipient_id"`
}

// RecommendRequest represents the arguments for recommend.
type RecommendRequest struct {
	RecipientID string   `json:"recipient_id,omitempty"`
	Answers     []string `json:"answers,omitempty"`
}

// SaveRequest represents the arguments for memorybox_save.
type SaveRequest struct {
	ItemID       int    `json:"item_id"`
	RecipientID  string `json:"recipient_id"`
	OccasionType string `json:"occasion_type"`
	CustomLabel  string `json:"custom_label,omitempty"`
	Date         string `json:"date,omitempty"`
	Notes        string `json:"notes,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// ItemRequest addresses a saved item, optionally narrowed to one recipient.
type ItemRequest struct {
	ItemID      int    `json:"item_id"`
	RecipientID string `json:"recipient_id,omitempty"`
}

// ListSavedRequest represents the arguments for memorybox_list.
type ListSavedRequest struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Status      string `json:"status,omitempty"`
}

// UpcomingRequest represents the arguments for memorybox_upcoming.
type UpcomingRequest struct {
	Limit int `json:"limit,omitempty"`
}

// ExportRequest represents the arguments for memorybox_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for memorybox_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleRecipientList handles the recipient_list tool call.
func (h *Handlers) HandleRecipientList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.ListRecipients(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRecipientCreate handles the recipient_create tool call.
func (h *Handlers) HandleRecipientCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecipientRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.CreateRecipient(ctx, h.env, ops.CreateRecipientInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRecipientRename handles the recipient_rename tool call.
func (h *Handlers) HandleRecipientRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecipientRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RenameRecipient(ctx, h.env, ops.RenameRecipientInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRecipientDelete handles the recipient_delete tool call.
func (h *Handlers) HandleRecipientDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecipientRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DeleteRecipient(ctx, h.env, ops.DeleteRecipientInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGiftCount handles the recipient_gift_count tool call.
func (h *Handlers) HandleGiftCount(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GiftCountRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GiftCount(ctx, h.env, input.RecipientID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCatalog handles the catalog tool call.
func (h *Handlers) HandleCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.Catalog())
}

// HandleRecommend handles the recommend tool call.
func (h *Handlers) HandleRecommend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecommendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var answers map[int]string
	if len(input.Answers) > 0 {
		answers = make(map[int]string, len(input.Answers))
		for i, a := range input.Answers {
			answers[i] = a
		}
	}

	result, err := ops.Recommend(ctx, h.env, ops.RecommendInput{
		RecipientID: input.RecipientID,
		Answers:     answers,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSave handles the memorybox_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SaveItem(ctx, h.env, ops.SaveItemInput{
		ItemID:      input.ItemID,
		RecipientID: input.RecipientID,
		ExpiresAt:   input.ExpiresAt,
		Occasion: ops.OccasionInput{
			Type:        input.OccasionType,
			CustomLabel: input.CustomLabel,
			Date:        input.Date,
			Notes:       input.Notes,
		},
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRemove handles the memorybox_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RemoveItem(ctx, h.env, ops.RemoveItemInput{
		ItemID:      input.ItemID,
		RecipientID: input.RecipientID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRefresh handles the memorybox_refresh tool call.
func (h *Handlers) HandleRefresh(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RefreshPrice(ctx, h.env, ops.RefreshPriceInput{
		ItemID:      input.ItemID,
		RecipientID: input.RecipientID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleListSaved handles the memorybox_list tool call.
func (h *Handlers) HandleListSaved(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListSavedRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListSaved(ctx, h.env, ops.ListSavedInput{
		RecipientID: input.RecipientID,
		Status:      input.Status,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUpcoming handles the memorybox_upcoming tool call.
func (h *Handlers) HandleUpcoming(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpcomingRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.UpcomingOccasions(ctx, h.env, input.Limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleBuy handles the memorybox_buy tool call.
func (h *Handlers) HandleBuy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Buy(ctx, h.env, ops.BuyInput{ItemID: input.ItemID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the memorybox_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.env, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the memorybox_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.env, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var cErr *errors.CuratrError
	if stderrors.As(err, &cErr) {
		message := cErr.Message
		if err != error(cErr) {
			// Keep wrapper context such as "import: ...".
			message = err.Error()
		}
		if cErr.Code == errors.ErrInternal {
			message = "an internal error occurred"
		}
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": message,
			"status":  cErr.Status,
		}
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
