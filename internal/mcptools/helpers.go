package mcptools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NHHoangTuan/todo-api/task"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: describeError(err),
			},
		},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}
	return textResult(string(b))
}

// describeError lists the blocking or referencing tasks so an agent can act
// on the failure without another round trip.
func describeError(err error) string {
	taskErr, ok := task.AsError(err)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(taskErr.Error())
	if len(taskErr.Blockers) > 0 {
		b.WriteString("\nincomplete dependencies:")
		for _, ref := range taskErr.Blockers {
			fmt.Fprintf(&b, "\n- %s %q (%s)", ref.ID, ref.Title, ref.Status)
		}
	}
	if len(taskErr.Referencing) > 0 {
		b.WriteString("\ndependent tasks:")
		for _, ref := range taskErr.Referencing {
			fmt.Fprintf(&b, "\n- %s %q", ref.ID, ref.Title)
		}
	}
	return b.String()
}
