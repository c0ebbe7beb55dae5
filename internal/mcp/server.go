package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/curatr/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"recipient_list": {
		def:     recipientListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecipientList },
	},
	"recipient_create": {
		def:     recipientCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecipientCreate },
	},
	"recipient_rename": {
		def:     recipientRenameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecipientRename },
	},
	"recipient_delete": {
		def:     recipientDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecipientDelete },
	},
	"recipient_gift_count": {
		def:     giftCountToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGiftCount },
	},
	"catalog": {
		def:     catalogToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCatalog },
	},
	"recommend": {
		def:     recommendToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecommend },
	},
	"memorybox_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"memorybox_remove": {
		def:     removeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemove },
	},
	"memorybox_refresh": {
		def:     refreshToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRefresh },
	},
	"memorybox_list": {
		def:     listSavedToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListSaved },
	},
	"memorybox_upcoming": {
		def:     upcomingToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpcoming },
	},
	"memorybox_buy": {
		def:     buyToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBuy },
	},
	"memorybox_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"memorybox_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns every valid tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with curatr tools registered.
// Tools listed in the config's DisabledTools are excluded from registration.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"curatr",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	if env.Config != nil {
		for _, name := range env.Config.DisabledTools {
			disabled[name] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, version string) error {
	return server.ServeStdio(NewServer(env, version))
}
