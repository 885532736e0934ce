package execenv

import (
	"fmt"
	"sort"
	"strings"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	environmentAssignmentPartCountConstant = 2
	forceColorVariableNameConstant         = "FORCE_COLOR"
	cliColorForceVariableNameConstant      = "CLICOLOR_FORCE"
	noColorVariableNameConstant            = "NO_COLOR"
	terminalTypeVariableNameConstant       = "TERM"
	colorForcedValueConstant               = "1"
	terminalTypeValueConstant              = "xterm-256color"
)

// Compose merges the ambient process environment with caller overrides and returns a fresh assignment slice.
//
// Ambient assignments are applied first, overrides second, and the terminal color overlay last so overrides
// cannot suppress it. When forceColor is enabled the NO_COLOR variable is removed from the merged mapping
// regardless of where it originated. The ambient slice is never mutated and assignments are sorted so two
// identical inputs always produce identical output.
func Compose(ambientEnvironment []string, overrideVariables map[string]string, forceColor bool) []string {
	mergedVariables := make(map[string]string, len(ambientEnvironment)+len(overrideVariables))

	for _, environmentAssignment := range ambientEnvironment {
		assignmentParts := strings.SplitN(environmentAssignment, environmentAssignmentSeparatorConstant, environmentAssignmentPartCountConstant)
		if len(assignmentParts) != environmentAssignmentPartCountConstant {
			continue
		}
		mergedVariables[assignmentParts[0]] = assignmentParts[1]
	}

	for overrideName, overrideValue := range overrideVariables {
		mergedVariables[overrideName] = overrideValue
	}

	if forceColor {
		mergedVariables[forceColorVariableNameConstant] = colorForcedValueConstant
		mergedVariables[cliColorForceVariableNameConstant] = colorForcedValueConstant
		mergedVariables[terminalTypeVariableNameConstant] = terminalTypeValueConstant
		delete(mergedVariables, noColorVariableNameConstant)
	}

	composedAssignments := make([]string, 0, len(mergedVariables))
	for variableName, variableValue := range mergedVariables {
		composedAssignments = append(composedAssignments, fmt.Sprintf(environmentAssignmentTemplateConstant, variableName, environmentAssignmentSeparatorConstant, variableValue))
	}
	sort.Strings(composedAssignments)

	return composedAssignments
}
