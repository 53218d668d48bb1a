package davclient

import (
	"fmt"
	"os"
)

// ConfigError represents an invalid client setting or call argument.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

// LocalFileError is returned by Post when the file to upload is missing.
type LocalFileError struct {
	Path string
}

func (e *LocalFileError) Error() string {
	return e.Path + " does not exist."
}

func (e *LocalFileError) Unwrap() error {
	return os.ErrNotExist
}

// ProtocolError represents a response with status >= 400.
// Its message is the status text sent by the server.
type ProtocolError struct {
	StatusCode int
	Status     string
	Method     string
	URI        string
}

func (e *ProtocolError) Error() string {
	return e.Status
}
