package types

// --- Navigate tool inputs ---

type ListPagesInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive title filter"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max results. Default: 50"`
}

type GetPageInput struct {
	PageID string `json:"pageId" jsonschema:"Page id to retrieve"`
}

type GetBacklinksInput struct {
	PageID string `json:"pageId" jsonschema:"Page id whose backlinks to find"`
}

type NavigateInput struct {
	PageID  string `json:"pageId" jsonschema:"Page id"`
	BlockID string `json:"blockId" jsonschema:"Block id to navigate from"`
}

// --- Page tool inputs ---

type CreatePageInput struct {
	Title    string `json:"title,omitempty" jsonschema:"Page title. Default: Untitled"`
	Type     string `json:"type,omitempty" jsonschema:"Page type: note or project or daily or collection. Default: note"`
	ParentID string `json:"parentId,omitempty" jsonschema:"Optional parent page id"`
}

type RenamePageInput struct {
	PageID string `json:"pageId" jsonschema:"Page id to rename"`
	Title  string `json:"title" jsonschema:"New title"`
}

// --- Block tool inputs ---

// BlockRef names one block on one page.
type BlockRef struct {
	PageID  string `json:"pageId" jsonschema:"Page id"`
	BlockID string `json:"blockId" jsonschema:"Block id"`
}

type AppendBlockInput struct {
	PageID  string `json:"pageId" jsonschema:"Page id"`
	Content string `json:"content,omitempty" jsonschema:"Initial text of the new block"`
}

type InsertBlockAfterInput struct {
	PageID  string `json:"pageId" jsonschema:"Page id"`
	BlockID string `json:"blockId" jsonschema:"Block id to insert after. The new block is its next sibling"`
	Content string `json:"content,omitempty" jsonschema:"Initial text of the new block"`
}

type UpdateBlockInput struct {
	PageID  string         `json:"pageId" jsonschema:"Page id"`
	BlockID string         `json:"blockId" jsonschema:"Block id to update"`
	Content *string        `json:"content,omitempty" jsonschema:"New text. Omit to keep the current text"`
	Type    string         `json:"type,omitempty" jsonschema:"New block type: paragraph or heading1..3 or todo or bulletList or orderedList or quote or code or divider or image"`
	Props   map[string]any `json:"props,omitempty" jsonschema:"Props merged into the existing props"`
}

type MoveBlockInput struct {
	PageID  string `json:"pageId" jsonschema:"Page id"`
	BlockID string `json:"blockId" jsonschema:"Block id to move"`
	OverID  string `json:"overId" jsonschema:"Sibling whose position the block takes"`
}

type SlashCommandInput struct {
	PageID  string `json:"pageId" jsonschema:"Page id"`
	BlockID string `json:"blockId" jsonschema:"Block id to convert"`
	Command string `json:"command" jsonschema:"Command id: text or h1 or h2 or h3 or todo or bullet or numbered or quote or code or divider or table"`
}

type InsertPageLinkInput struct {
	PageID       string `json:"pageId" jsonschema:"Page id holding the block"`
	BlockID      string `json:"blockId" jsonschema:"Block id to link from"`
	TargetPageID string `json:"targetPageId" jsonschema:"Page to link to"`
}

// SavePageInput has no params; every page with pending edits is saved.
type SavePageInput struct{}

// --- Analyze tools ---

// GraphOverviewInput has no params; the whole workspace is analyzed.
type GraphOverviewInput struct{}

type FindConnectionsInput struct {
	From     string `json:"from" jsonschema:"Page id to start from"`
	To       string `json:"to" jsonschema:"Page id to reach"`
	MaxDepth int    `json:"maxDepth,omitempty" jsonschema:"Maximum number of link hops to search. Default 5"`
}

type KnowledgeGapsInput struct{}

type TopicClustersInput struct{}

// --- Search tools ---

type SearchInput struct {
	Query string `json:"query" jsonschema:"Text to find in block content. Case-insensitive. Link tokens match on their title"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results. Default 20"`
}

type QueryBlocksInput struct {
	Type  string `json:"type,omitempty" jsonschema:"Block type to match, e.g. todo or heading1"`
	Prop  string `json:"prop,omitempty" jsonschema:"Prop name the block must have, e.g. checked"`
	Value string `json:"value,omitempty" jsonschema:"Prop value to match, compared as text ignoring case. Omit to match any value"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results. Default 20"`
}

// --- Daily page tools ---

type DailyPageInput struct {
	Date string `json:"date,omitempty" jsonschema:"Day as YYYY-MM-DD. Default today"`
}

type DailyRangeInput struct {
	From          string `json:"from" jsonschema:"First day as YYYY-MM-DD"`
	To            string `json:"to" jsonschema:"Last day as YYYY-MM-DD"`
	IncludeBlocks bool   `json:"includeBlocks,omitempty" jsonschema:"Include each page's saved block tree"`
}
