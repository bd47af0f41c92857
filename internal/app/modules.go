package app

import (
	"github.com/vk/exprun/internal/registry"
	"github.com/vk/exprun/modules/hello"
)

// coreModules are the entry-point modules compiled into the binary.
var coreModules = []registry.Module{
	&hello.Module{},
}
