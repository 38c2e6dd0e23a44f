package tools

import (
	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/pkg/codegen"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Generator *codegen.Generator
	Config    *config.Config
}
