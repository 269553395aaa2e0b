package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skridlevsky/pagetree/backlink"
	"github.com/skridlevsky/pagetree/parser"
	"github.com/skridlevsky/pagetree/tree"
	"github.com/skridlevsky/pagetree/types"
)

// runTree prints a page's block tree, one block per line, indented by depth.
func runTree(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	raw := fs.Bool("raw", false, "Print link tokens instead of their titles")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pagetree tree [-raw] PAGE_ID\n\n")
		fmt.Fprintf(os.Stderr, "Prints the block tree of a page as it is stored.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	pageID := fs.Arg(0)
	page, err := a.backend.GetPage(ctx, pageID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagetree tree: %v\n", err)
		return 1
	}
	blocks, err := a.backend.LoadBlocks(ctx, pageID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagetree tree: %v\n", err)
		return 1
	}

	fmt.Printf("%s (%s)\n", page.Title, page.ID)
	printTree(os.Stdout, tree.Build(blocks), *raw)
	return 0
}

// runBacklinks prints the blocks that link to a page.
func runBacklinks(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("backlinks", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pagetree backlinks PAGE_ID\n\n")
		fmt.Fprintf(os.Stderr, "Lists blocks on any page that link to PAGE_ID.\n")
	}
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	links, err := backlink.New(a.backend).Find(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagetree backlinks: %v\n", err)
		return 1
	}
	if len(links) == 0 {
		fmt.Fprintf(os.Stderr, "no backlinks to %s\n", fs.Arg(0))
		return 0
	}
	printBacklinks(os.Stdout, links)
	return 0
}

// runNewPage creates a page and prints its id.
func runNewPage(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("new-page", flag.ContinueOnError)
	typ := fs.String("type", "note", "Page type: note, project, daily or collection")
	parent := fs.String("parent", "", "Parent page id")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pagetree new-page [-type TYPE] [-parent PAGE_ID] TITLE\n\n")
		fmt.Fprintf(os.Stderr, "Creates a page with one empty paragraph.\n")
		fmt.Fprintf(os.Stderr, "Prints the page id on success.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 1
	}

	s, err := a.sessions.CreatePage(ctx, types.Page{
		Title:    strings.Join(fs.Args(), " "),
		Type:     types.PageType(*typ),
		ParentID: *parent,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagetree new-page: %v\n", err)
		return 1
	}
	fmt.Println(s.Page().ID)
	return 0
}

// --- Helpers ---

func printTree(w io.Writer, nodes []*tree.Node, raw bool) {
	for _, n := range tree.Flatten(nodes) {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", n.Depth), formatBlock(n.Block, raw))
	}
}

// formatBlock renders one block as a single line of plain text.
func formatBlock(b types.Block, raw bool) string {
	content := b.Content
	if !raw {
		content = parser.StripLinks(content)
	}
	switch b.Type {
	case types.BlockHeading1:
		return "# " + content
	case types.BlockHeading2:
		return "## " + content
	case types.BlockHeading3:
		return "### " + content
	case types.BlockTodo:
		if b.Checked() {
			return "[x] " + content
		}
		return "[ ] " + content
	case types.BlockBulletList:
		return "- " + content
	case types.BlockOrderedList:
		return fmt.Sprintf("%d. %s", b.Index+1, content)
	case types.BlockQuote:
		return "> " + content
	case types.BlockCode:
		return "`" + content + "`"
	case types.BlockDivider:
		return "---"
	case types.BlockTable:
		return "[table " + b.Content + "]"
	case types.BlockImage:
		return "[image] " + content
	}
	return content
}

func printBacklinks(w io.Writer, links []types.Backlink) {
	for _, l := range links {
		fmt.Fprintf(w, "%s | %s\n", l.PageTitle, backlink.Render(l))
	}
}
