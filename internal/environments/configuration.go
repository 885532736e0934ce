package environments

import "strings"

const (
	// DefaultBinaryNameConstant is the executable used when configuration supplies none.
	DefaultBinaryNameConstant = "container-use"
	// DefaultWorkingDirectoryConstant is the working directory used when configuration supplies none.
	DefaultWorkingDirectoryConstant = "."

	binaryConfigurationKeyConstant           = "environments.binary"
	workingDirectoryConfigurationKeyConstant = "environments.working_directory"
)

// Configuration controls how the service invokes the container-use binary.
type Configuration struct {
	// BinaryName is the container-use executable name or path.
	BinaryName string `mapstructure:"binary"`
	// WorkingDirectory is the directory commands run in.
	WorkingDirectory string `mapstructure:"working_directory"`
}

// DefaultConfigurationValues supplies viper defaults for the environments section.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		binaryConfigurationKeyConstant:           DefaultBinaryNameConstant,
		workingDirectoryConfigurationKeyConstant: DefaultWorkingDirectoryConstant,
	}
}

func (configuration Configuration) sanitized() Configuration {
	sanitizedConfiguration := configuration
	if len(strings.TrimSpace(sanitizedConfiguration.BinaryName)) == 0 {
		sanitizedConfiguration.BinaryName = DefaultBinaryNameConstant
	}
	if len(strings.TrimSpace(sanitizedConfiguration.WorkingDirectory)) == 0 {
		sanitizedConfiguration.WorkingDirectory = DefaultWorkingDirectoryConstant
	}
	return sanitizedConfiguration
}
