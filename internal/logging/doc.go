// Package logging builds the zap logger tminus writes to its log file.
package logging
