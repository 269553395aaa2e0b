package types

import (
	"encoding/json"
	"maps"
	"time"
)

// BlockType tags how a block renders and which props it understands.
type BlockType string

const (
	BlockParagraph   BlockType = "paragraph"
	BlockHeading1    BlockType = "heading1"
	BlockHeading2    BlockType = "heading2"
	BlockHeading3    BlockType = "heading3"
	BlockTodo        BlockType = "todo"
	BlockBulletList  BlockType = "bulletList"
	BlockOrderedList BlockType = "orderedList"
	BlockQuote       BlockType = "quote"
	BlockCode        BlockType = "code"
	BlockDivider     BlockType = "divider"
	BlockTable       BlockType = "table"
	BlockImage       BlockType = "image"
)

var knownBlockTypes = map[BlockType]bool{
	BlockParagraph:   true,
	BlockHeading1:    true,
	BlockHeading2:    true,
	BlockHeading3:    true,
	BlockTodo:        true,
	BlockBulletList:  true,
	BlockOrderedList: true,
	BlockQuote:       true,
	BlockCode:        true,
	BlockDivider:     true,
	BlockTable:       true,
	BlockImage:       true,
}

// Valid reports whether t is one of the known block types.
func (t BlockType) Valid() bool {
	return knownBlockTypes[t]
}

// Block is one node of a page's content tree, in its persisted flat form.
//
// ParentBlockID is empty for root blocks. Index orders a block among the
// blocks sharing its ParentBlockID. For BlockTable, Content holds the id of
// the associated record table rather than text.
type Block struct {
	ID            string         `json:"id" yaml:"id"`
	PageID        string         `json:"pageId" yaml:"pageId"`
	ParentBlockID string         `json:"parentBlockId,omitempty" yaml:"parentBlockId,omitempty"`
	Type          BlockType      `json:"type" yaml:"type"`
	Content       string         `json:"content" yaml:"content"`
	Props         map[string]any `json:"props" yaml:"props,omitempty"`
	Index         int            `json:"index" yaml:"index"`
	CreatedAt     time.Time      `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt     time.Time      `json:"updatedAt" yaml:"updatedAt,omitempty"`
	Version       int            `json:"version" yaml:"version,omitempty"`
}

// IsRoot reports whether the block has no parent reference.
func (b Block) IsRoot() bool {
	return b.ParentBlockID == ""
}

// Checked reads the todo "checked" prop. Absent or non-true values are false.
func (b Block) Checked() bool {
	v, ok := b.Props["checked"].(bool)
	return ok && v
}

// Clone returns a copy of b whose Props map is not shared with b.
func (b Block) Clone() Block {
	c := b
	if b.Props != nil {
		c.Props = maps.Clone(b.Props)
	}
	return c
}

// UnmarshalJSON accepts a null parentBlockId and a null or missing props object.
func (b *Block) UnmarshalJSON(data []byte) error {
	type blockAlias Block
	var raw struct {
		blockAlias
		ParentBlockID *string `json:"parentBlockId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Block(raw.blockAlias)
	if raw.ParentBlockID != nil {
		b.ParentBlockID = *raw.ParentBlockID
	}
	if b.Props == nil {
		b.Props = map[string]any{}
	}
	return nil
}

// PageType classifies a page.
type PageType string

const (
	PageNote       PageType = "note"
	PageProject    PageType = "project"
	PageDaily      PageType = "daily"
	PageCollection PageType = "collection"
)

// Page owns a forest of blocks.
type Page struct {
	ID          string    `json:"id" yaml:"id"`
	WorkspaceID string    `json:"workspaceId" yaml:"workspaceId,omitempty"`
	Title       string    `json:"title" yaml:"title"`
	Type        PageType  `json:"type" yaml:"type,omitempty"`
	Icon        string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	ParentID    string    `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	SortOrder   int64     `json:"sortOrder" yaml:"sortOrder,omitempty"`
	IsArchived  bool      `json:"isArchived" yaml:"isArchived,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
	Version     int       `json:"version" yaml:"version,omitempty"`
}

// PageUpdate carries the mutable page fields. Nil fields are left alone.
type PageUpdate struct {
	Title    *string `json:"title,omitempty"`
	ParentID *string `json:"parentId,omitempty"`
}

// Backlink is a block on some page whose content links to a target page.
// Preview holds raw content, link tokens included.
type Backlink struct {
	PageID    string `json:"pageId"`
	PageTitle string `json:"pageTitle"`
	BlockID   string `json:"blockId"`
	Preview   string `json:"preview"`
}

// RecordTable is the external flat-record table a table block points at.
type RecordTable struct {
	ID        string    `json:"id"`
	PageID    string    `json:"pageId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordColumn is a column of a record table.
type RecordColumn struct {
	ID       string `json:"id"`
	TableID  string `json:"databaseId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// RecordRow is a row of a record table; Data is keyed by column id.
type RecordRow struct {
	ID        string         `json:"id"`
	TableID   string         `json:"databaseId"`
	Data      map[string]any `json:"data"`
	Position  int            `json:"position"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// RecordTableDetails is a record table with its columns and rows.
type RecordTableDetails struct {
	Table   RecordTable    `json:"database"`
	Columns []RecordColumn `json:"columns"`
	Rows    []RecordRow    `json:"rows"`
}
