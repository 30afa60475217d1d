// Package markdown corrects LLM-generated markdown for chat platforms.
// Models are stubborn about emitting GitHub-flavored markdown; Slack's
// mrkdwn and Discord's renderer both need fixups before display.
package markdown

import (
	"regexp"
	"strings"

	"github.com/olekukonko/tablewriter"
)

var (
	// [text](http://...) style links
	linkRe = regexp.MustCompile(`\[(.*?)\]\((http.*?)\)`)
	// language specifier on a code fence
	fenceLangRe = regexp.MustCompile("```[a-z]+\n")
	// **bold**
	boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)
	// a markdown table: header row, separator row, one or more data rows
	tableRe = regexp.MustCompile(`\|.*\|[\n\r]+\|[-:| ]+\|[\n\r]+(?:\|.*\|[\n\r]?)+`)
)

// FixSlack rewrites markdown into Slack mrkdwn: links become <url|text>,
// bold markers are halved, code fences lose their language specifier, and
// tables are re-rendered fixed width inside a code block.
func FixSlack(message string) string {
	message = linkRe.ReplaceAllString(message, "<$2|$1>")
	message = fenceLangRe.ReplaceAllString(message, "```")
	message = boldRe.ReplaceAllString(message, "*$1*")
	return ConvertTables(message)
}

// FixDiscord applies the same corrections for Discord. Discord renders
// standard bold, so only fences and tables need fixing.
func FixDiscord(message string) string {
	message = fenceLangRe.ReplaceAllString(message, "```")
	return ConvertTables(message)
}

// ConvertTables replaces every markdown table with a fixed-width rendering
// wrapped in a code fence, since neither platform renders table syntax.
func ConvertTables(message string) string {
	return tableRe.ReplaceAllStringFunc(message, func(tableStr string) string {
		var headers []string
		var rows [][]string

		lines := strings.Split(tableStr, "\n")
		rowIdx := 0
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			cells := splitRow(line)
			switch rowIdx {
			case 0:
				headers = cells
			case 1:
				// separator row
			default:
				rows = append(rows, cells)
			}
			rowIdx++
		}

		if len(headers) == 0 {
			return tableStr
		}

		var buf strings.Builder
		table := tablewriter.NewWriter(&buf)
		table.SetHeader(headers)
		table.SetAutoFormatHeaders(false)
		table.SetAutoWrapText(false)
		table.SetCenterSeparator("+")
		table.SetColumnSeparator("|")
		table.SetRowSeparator("-")
		table.AppendBulk(rows)
		table.Render()

		return "\n```\n" + strings.TrimRight(buf.String(), "\n") + "\n```\n"
	})
}

// splitRow splits a "| a | b |" table row into trimmed, non-empty cells.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			cells = append(cells, part)
		}
	}
	return cells
}
