package renderer

import (
	"log"
	"os"

	"github.com/jpeterson/pathtracer/pkg/core"
)

// DefaultLogger wraps the standard library logger behind core.Logger, so
// callers that don't care about logging destinations can just use this.
type DefaultLogger struct {
	*log.Logger
}

// NewDefaultLogger creates a logger writing to stderr with a time prefix.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

var _ core.Logger = (*DefaultLogger)(nil)
