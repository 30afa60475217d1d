package kafkaoutput

import (
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/registry"
)

func init() {
	registry.RegisterOutput(PlatformName, func() core.Output {
		return New()
	})
}
