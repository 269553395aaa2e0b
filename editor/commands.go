package editor

import (
	"strings"

	"github.com/skridlevsky/pagetree/types"
)

// Command is one entry of the slash menu.
type Command struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Type        types.BlockType `json:"type"`
	Description string          `json:"description"`
}

// IsTable reports whether applying the command needs a record table.
func (c Command) IsTable() bool { return c.Type == types.BlockTable }

// Commands is the slash menu in display order.
var Commands = []Command{
	{ID: "text", Label: "Text", Type: types.BlockParagraph, Description: "Plain text"},
	{ID: "h1", Label: "Heading 1", Type: types.BlockHeading1, Description: "Large section heading"},
	{ID: "h2", Label: "Heading 2", Type: types.BlockHeading2, Description: "Medium section heading"},
	{ID: "h3", Label: "Heading 3", Type: types.BlockHeading3, Description: "Small section heading"},
	{ID: "todo", Label: "To-do", Type: types.BlockTodo, Description: "Track a task with a checkbox"},
	{ID: "bullet", Label: "Bulleted list", Type: types.BlockBulletList, Description: "Simple bulleted list"},
	{ID: "numbered", Label: "Numbered list", Type: types.BlockOrderedList, Description: "List with numbering"},
	{ID: "quote", Label: "Quote", Type: types.BlockQuote, Description: "Capture a quote"},
	{ID: "code", Label: "Code", Type: types.BlockCode, Description: "Code snippet"},
	{ID: "divider", Label: "Divider", Type: types.BlockDivider, Description: "Visual separator"},
	{ID: "table", Label: "Table", Type: types.BlockTable, Description: "Database table with rows and columns"},
}

// FilterCommands returns the commands whose id or label contains query,
// case-insensitively. An empty query returns the full catalog.
func FilterCommands(query string) []Command {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Commands
	}
	var out []Command
	for _, c := range Commands {
		if strings.Contains(c.ID, q) || strings.Contains(strings.ToLower(c.Label), q) {
			out = append(out, c)
		}
	}
	return out
}

// LookupCommand finds a command by id.
func LookupCommand(id string) (Command, bool) {
	for _, c := range Commands {
		if c.ID == id {
			return c, true
		}
	}
	return Command{}, false
}
