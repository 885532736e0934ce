// Package utils exposes reusable helpers consumed across the server.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging, plus the
// FlushingWriter used to stream command output over HTTP.
package utils
