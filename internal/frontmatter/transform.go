package frontmatter

import (
	"time"

	"github.com/metamechanic/notesync/internal/model"
)

// requiredKeys lists the metadata each platform expects on every note.
// A key that appears in some platform's list but not the target's is
// treated as platform-specific and is not copied across.
var requiredKeys = map[model.Platform][]string{
	model.Logseq:   {"title", "type"},
	model.Obsidian: {"title", "tags", "created"},
	model.Quarto:   {"title", "format", "date", "categories"},
}

// RequiredKeys returns the metadata keys the platform expects.
func RequiredKeys(p model.Platform) []string {
	return requiredKeys[p]
}

// universalKeys travel to every platform even when only some require them.
// The note type must survive everywhere: it drives schema lookup and folder
// routing when the note is read back.
var universalKeys = map[string]bool{
	"title": true,
	"type":  true,
}

// platformSpecific reports whether key belongs to some platform's required
// set without belonging to the target's.
func platformSpecific(key string, target model.Platform) bool {
	if universalKeys[key] {
		return false
	}
	owned := false
	for platform, keys := range requiredKeys {
		for _, k := range keys {
			if k != key {
				continue
			}
			if platform == target {
				return false
			}
			owned = true
		}
	}
	return owned
}

// Transform produces the target platform's rendition of a source record:
// platform-specific keys are dropped, paired keys are carried over
// (tags <-> categories, created <-> date), required keys are backfilled.
func Transform(source Record, target model.Platform, title string) Record {
	out := make(Record, len(source))
	for key, value := range source {
		if platformSpecific(key, target) {
			continue
		}
		out[key] = value
	}

	carryPairedKeys(source, out, target)
	EnsureRequired(out, target, title)
	return out
}

// Merge combines a source record into an existing target record. Target
// values win for the target platform's own required keys; everything else
// follows the source. Used when the target file already exists.
func Merge(source, target Record, targetPlatform model.Platform, title string) Record {
	merged := target.Clone()

	for key, value := range source {
		if platformSpecific(key, targetPlatform) {
			continue
		}
		if isRequired(key, targetPlatform) {
			if _, exists := target[key]; exists {
				continue
			}
		}
		merged[key] = value
	}

	carryPairedKeys(source, merged, targetPlatform)
	EnsureRequired(merged, targetPlatform, title)
	return merged
}

// carryPairedKeys maps equivalent fields across platforms when the target
// does not have its own value yet.
func carryPairedKeys(source, out Record, target model.Platform) {
	switch target {
	case model.Quarto:
		if _, ok := out["categories"]; !ok {
			if tags := source.StringList("tags"); tags != nil {
				out["categories"] = tags
			}
		}
		if _, ok := out["date"]; !ok {
			if created := source.StringValue("created"); created != "" {
				out["date"] = created
			}
		}
	case model.Obsidian:
		if _, ok := out["tags"]; !ok {
			if categories := source.StringList("categories"); categories != nil {
				out["tags"] = categories
			}
		}
		if _, ok := out["created"]; !ok {
			if date := source.StringValue("date"); date != "" {
				out["created"] = date
			}
		}
	}
}

// EnsureRequired backfills the platform's required keys with derived
// defaults: the note title, today's date, an empty list, or "html" for
// Quarto's format field.
func EnsureRequired(rec Record, platform model.Platform, title string) {
	for _, key := range requiredKeys[platform] {
		if _, ok := rec[key]; ok {
			continue
		}
		switch key {
		case "title":
			rec[key] = title
		case "type":
			rec[key] = "note"
		case "created", "date":
			rec[key] = time.Now().Format("2006-01-02")
		case "format":
			rec[key] = "html"
		case "tags", "categories":
			rec[key] = []any{}
		default:
			rec[key] = ""
		}
	}
}

func isRequired(key string, platform model.Platform) bool {
	for _, k := range requiredKeys[platform] {
		if k == key {
			return true
		}
	}
	return false
}
