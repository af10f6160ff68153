// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode/utf16"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// truncationMarker ends a reply that was cut to fit a message limit.
const truncationMarker = "\n…"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts Markdown to HTML. Raw HTML in the source is
// dropped, not passed through.
func RenderHTML(source string) (string, error) {
	var buffer bytes.Buffer
	if err := markdown.Convert([]byte(source), &buffer); err != nil {
		return "", fmt.Errorf("chat: rendering markdown: %w", err)
	}
	return strings.TrimSpace(buffer.String()), nil
}

// CodeLanguage returns the highlighting language for a file name, such
// as "go" for "main.go", or "" when chroma has no lexer for it.
func CodeLanguage(filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return ""
	}
	config := lexer.Config()
	if config == nil || strings.EqualFold(config.Name, "plaintext") {
		return ""
	}
	if len(config.Aliases) > 0 {
		return config.Aliases[0]
	}
	return strings.ToLower(config.Name)
}

// CodeBlockHTML wraps text in a preformatted block. The language class
// follows the CommonMark convention both Telegram and Matrix clients read.
func CodeBlockHTML(text, language string) string {
	var builder strings.Builder
	builder.WriteString("<pre><code")
	if language != "" {
		builder.WriteString(` class="language-`)
		builder.WriteString(html.EscapeString(language))
		builder.WriteString(`"`)
	}
	builder.WriteString(">")
	builder.WriteString(html.EscapeString(text))
	builder.WriteString("</code></pre>")
	return builder.String()
}

// Truncate shortens text to at most limit runes, ending it with a marker
// when anything was cut.
func Truncate(text string, limit int) string {
	return truncate(text, limit, func(rune) int { return 1 })
}

// TruncateUTF16 is Truncate with the limit counted in UTF-16 code units,
// the unit Telegram measures message length in. Characters outside the
// Basic Multilingual Plane, emoji among them, count twice.
func TruncateUTF16(text string, limit int) string {
	return truncate(text, limit, utf16Width)
}

func utf16Width(r rune) int {
	if width := utf16.RuneLen(r); width > 0 {
		return width
	}
	return 1
}

func truncate(text string, limit int, width func(rune) int) string {
	measure := func(s string) int {
		total := 0
		for _, r := range s {
			total += width(r)
		}
		return total
	}
	if measure(text) <= limit {
		return text
	}
	keep := max(limit-measure(truncationMarker), 0)
	used := 0
	for index, r := range text {
		if used+width(r) > keep {
			return text[:index] + truncationMarker
		}
		used += width(r)
	}
	return text + truncationMarker
}
