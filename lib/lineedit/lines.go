// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lineedit

import (
	"bytes"
	"fmt"
	"strings"
)

// Line is one numbered line of a file, without its newline.
type Line struct {
	Number int
	Text   string
}

// normalize appends a newline to non-empty data that lacks one.
func normalize(data []byte) []byte {
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return data
	}
	return append(data, '\n')
}

// countLines counts newline characters.
func countLines(data []byte) int {
	return bytes.Count(data, []byte{'\n'})
}

// splitLines splits data into lines without their newlines. An
// unterminated final line is included.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// clampRange validates start and resolves end against the sed rules.
func clampRange(start, end int) (int, int, error) {
	if start < 1 {
		return 0, 0, fmt.Errorf("line %d is out of range, lines start at 1", start)
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

// insertText places content at line. When line is past the last line
// the content is appended to the end of the file; otherwise it becomes
// new lines in front of line. appended reports which happened.
func insertText(data []byte, content string, line int) (result []byte, appended bool, err error) {
	if line < 1 {
		return nil, false, fmt.Errorf("line %d is out of range, lines start at 1", line)
	}
	data = normalize(data)

	if line > countLines(data) {
		result = append(append([]byte{}, data...), content...)
		return normalize(result), true, nil
	}

	lines := splitLines(data)
	var buffer bytes.Buffer
	buffer.Write(joinLines(lines[:line-1]))
	buffer.WriteString(content)
	buffer.WriteByte('\n')
	buffer.Write(joinLines(lines[line-1:]))
	return normalize(buffer.Bytes()), false, nil
}

// deleteLines removes the inclusive range [start, end].
func deleteLines(data []byte, start, end int) ([]byte, error) {
	start, end, err := clampRange(start, end)
	if err != nil {
		return nil, err
	}
	lines := splitLines(normalize(data))
	if start > len(lines) {
		return normalize(data), nil
	}
	end = min(end, len(lines))
	kept := append(append([]string{}, lines[:start-1]...), lines[end:]...)
	return joinLines(kept), nil
}

// selectLines returns the numbered lines in [start, end].
func selectLines(data []byte, start, end int) ([]Line, error) {
	start, end, err := clampRange(start, end)
	if err != nil {
		return nil, err
	}
	lines := splitLines(data)
	var selected []Line
	for number := start; number <= end && number <= len(lines); number++ {
		selected = append(selected, Line{Number: number, Text: lines[number-1]})
	}
	return selected, nil
}
