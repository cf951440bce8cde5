package model

import (
	"fmt"
	"strings"
)

// Platform represents a supported note-taking or publishing platform
type Platform string

const (
	Logseq   Platform = "logseq"
	Obsidian Platform = "obsidian"
	Quarto   Platform = "quarto"
)

// IsValid returns true if the platform is recognized
func (p Platform) IsValid() bool {
	switch p {
	case Logseq, Obsidian, Quarto:
		return true
	default:
		return false
	}
}

// String returns the platform identifier.
func (p Platform) String() string {
	return string(p)
}

// UsesYAMLFrontmatter reports whether the platform stores note metadata as a
// YAML frontmatter block. Logseq uses `key:: value` properties instead.
func (p Platform) UsesYAMLFrontmatter() bool {
	return p != Logseq
}

// AllPlatforms returns all supported platforms
func AllPlatforms() []Platform {
	return []Platform{Logseq, Obsidian, Quarto}
}

// ParsePlatform converts a user-supplied string to a Platform.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("unknown platform %q (expected one of: logseq, obsidian, quarto)", s)
	}
	return p, nil
}
