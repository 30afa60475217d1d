package slackinput

import (
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/registry"
)

func init() {
	registry.RegisterInput(PlatformName, func() core.Input {
		return New()
	})
}
