package convert

import (
	"regexp"

	"github.com/metamechanic/notesync/internal/model"
)

var (
	blockRef  = regexp.MustCompile(`\(\(([a-zA-Z0-9-]+)\)\)`)
	pageEmbed = regexp.MustCompile(`\{\{embed \[\[([^\]]+)\]\]\}\}`)
)

// LogseqSyntax rewrites Logseq-only constructs for another platform: block
// references `((id))` and page embeds `{{embed [[Page]]}}`. Obsidian has
// direct equivalents; Quarto gets a placeholder and a plain link. The
// rewrite is one-way and applies only when copying out of Logseq.
func LogseqSyntax(content string, target model.Platform) string {
	switch target {
	case model.Obsidian:
		content = blockRef.ReplaceAllString(content, "[[^$1]]")
		content = pageEmbed.ReplaceAllString(content, "![[$1]]")
	case model.Quarto:
		content = blockRef.ReplaceAllString(content, "[*Block Reference*]")
		content = pageEmbed.ReplaceAllString(content, "See: [$1]($1)")
	}
	return content
}
