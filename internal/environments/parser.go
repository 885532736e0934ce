package environments

import (
	"regexp"
	"strings"
)

const (
	tableHeaderIdentifierColumnConstant = "ID"
	minimumTableColumnCountConstant     = 4
)

var tableColumnSeparatorPattern = regexp.MustCompile(`\s{2,}`)

// Environment describes one container-use environment row.
type Environment struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}

// ParseEnvironmentTable extracts environments from container-use list output.
//
// The table is located by its ID header row; subsequent rows are split on runs
// of two or more spaces and rows with fewer than four columns are skipped.
func ParseEnvironmentTable(tableOutput string) []Environment {
	parsedEnvironments := []Environment{}
	headerSeen := false

	for _, rawLine := range strings.Split(tableOutput, "\n") {
		trimmedLine := strings.TrimSpace(rawLine)
		if len(trimmedLine) == 0 {
			continue
		}

		if !headerSeen {
			if strings.HasPrefix(trimmedLine, tableHeaderIdentifierColumnConstant) {
				headerSeen = true
			}
			continue
		}

		columns := tableColumnSeparatorPattern.Split(trimmedLine, -1)
		if len(columns) < minimumTableColumnCountConstant {
			continue
		}

		parsedEnvironments = append(parsedEnvironments, Environment{
			ID:      columns[0],
			Title:   columns[1],
			Created: columns[2],
			Updated: columns[3],
		})
	}

	return parsedEnvironments
}
