package mcp

import "github.com/mark3labs/mcp-go/mcp"

var recipientListToolDef = mcp.NewTool("recipient_list",
	mcp.WithDescription("List recipients in creation order with the number of gifts saved for each."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var recipientCreateToolDef = mcp.NewTool("recipient_create",
	mcp.WithDescription("Add a recipient. The name is trimmed and must be 1-100 characters."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Recipient display name")),
)

var recipientRenameToolDef = mcp.NewTool("recipient_rename",
	mcp.WithDescription("Rename an existing recipient."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recipient id")),
	mcp.WithString("name", mcp.Required(), mcp.Description("New display name")),
)

var recipientDeleteToolDef = mcp.NewTool("recipient_delete",
	mcp.WithDescription("Delete a recipient and every Memory Box entry saved for them. Deleting an unknown id is a no-op."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recipient id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var giftCountToolDef = mcp.NewTool("recipient_gift_count",
	mcp.WithDescription("Count Memory Box entries saved for a recipient."),
	mcp.WithString("recipient_id", mcp.Required(), mcp.Description("Recipient id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var catalogToolDef = mcp.NewTool("catalog",
	mcp.WithDescription("Return the gift catalog, the quiz questions, and the predefined occasion types."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var recommendToolDef = mcp.NewTool("recommend",
	mcp.WithDescription("Start a recommendation session: every catalog item decorated with one shared price expiry. "+
		"Pass recipient_id to flag items already saved for them; pass answers to run the quiz first."),
	mcp.WithString("recipient_id", mcp.Description("Recipient the session is for")),
	mcp.WithArray("answers",
		mcp.Description("One answer per quiz question, in question order"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var saveToolDef = mcp.NewTool("memorybox_save",
	mcp.WithDescription("Save a catalog item to the Memory Box for a recipient, tagged with an occasion."),
	mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Catalog item id")),
	mcp.WithString("recipient_id", mcp.Required(), mcp.Description("Recipient id")),
	mcp.WithString("occasion_type", mcp.Required(),
		mcp.Description("Occasion type"),
		mcp.Enum("birthday", "anniversary", "holiday", "graduation", "thank_you", "just_because", "custom"),
	),
	mcp.WithString("custom_label", mcp.Description("Label for a custom occasion")),
	mcp.WithString("date", mcp.Description("Occasion date as YYYY-MM-DD, today or later")),
	mcp.WithString("notes", mcp.Description("Free-form notes (markdown)")),
	mcp.WithNumber("expires_at", mcp.Description("Expiry from the recommendation session, unix milliseconds")),
)

var removeToolDef = mcp.NewTool("memorybox_remove",
	mcp.WithDescription("Remove an item from the Memory Box. Without recipient_id the item is removed for everyone."),
	mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Catalog item id")),
	mcp.WithString("recipient_id", mcp.Description("Recipient id, or \"all\"")),
	mcp.WithDestructiveHintAnnotation(true),
)

var refreshToolDef = mcp.NewTool("memorybox_refresh",
	mcp.WithDescription("Re-quote the current price of a saved item. The original price is kept."),
	mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Catalog item id")),
	mcp.WithString("recipient_id", mcp.Description("Recipient id, or \"all\"")),
)

var listSavedToolDef = mcp.NewTool("memorybox_list",
	mcp.WithDescription("List Memory Box entries filtered by recipient and expiry status."),
	mcp.WithString("recipient_id", mcp.Description("Recipient id, or \"all\" (default)")),
	mcp.WithString("status", mcp.Description("Expiry filter"), mcp.Enum("all", "upcoming", "expired")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var upcomingToolDef = mcp.NewTool("memorybox_upcoming",
	mcp.WithDescription("List the nearest dated occasions still ahead, soonest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum entries (default from config)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var buyToolDef = mcp.NewTool("memorybox_buy",
	mcp.WithDescription("Return the Amazon purchase link for a catalog item."),
	mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Catalog item id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("memorybox_export",
	mcp.WithDescription("Write recipients and the Memory Box to a JSON backup file."),
	mcp.WithString("path", mcp.Description("Destination .json path inside an allowed directory")),
)

var importToolDef = mcp.NewTool("memorybox_import",
	mcp.WithDescription("Load a JSON backup written by memorybox_export."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Backup .json path inside an allowed directory")),
	mcp.WithString("mode", mcp.Description("merge (default) or replace"), mcp.Enum("merge", "replace")),
)
