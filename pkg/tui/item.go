package tui

import (
	"fmt"
	"strings"

	"github.com/modularwp/media-import/pkg/browse"
	"github.com/modularwp/media-import/pkg/sources/types"
)

// row renders a tile as a single line of the results list.
func row(t browse.Tile, active bool) string {
	var b strings.Builder

	switch {
	case active:
		b.WriteString(cursorStyle.Render("> "))
	default:
		b.WriteString("  ")
	}

	mark := "[ ]"
	if t.Selected {
		mark = selectedStyle.Render("[x]")
	}
	b.WriteString(mark)
	b.WriteByte(' ')

	title := t.Item.Title
	if title == "" {
		title = t.Item.SourceItemID
	}
	if active {
		title = cursorStyle.Render(title)
	}
	b.WriteString(title)

	if details := describe(t.Item); details != "" {
		b.WriteString("  ")
		b.WriteString(faintStyle.Render(details))
	}

	return b.String()
}

func describe(item *types.MediaItem) string {
	var parts []string

	if item.Width > 0 && item.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", item.Width, item.Height))
	}
	if item.Type == types.MediaTypeVideo && item.Duration > 0 {
		parts = append(parts, clock(item.Duration))
	}
	if item.Filesize != "" {
		parts = append(parts, item.Filesize)
	}
	if item.Attribution != "" {
		parts = append(parts, item.Attribution)
	}

	return strings.Join(parts, " · ")
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
