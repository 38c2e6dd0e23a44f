package mcpsrv

import (
	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/pkg/codegen"
)

// Deps contains the dependencies available to custom tools. Builtin tools
// share the same Generator, so compiled jq programs are reused across both.
type Deps struct {
	Generator *codegen.Generator
	Queries   *cache.QueryCache
	Config    *config.Config
}
