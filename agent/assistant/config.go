package assistant

import (
	"time"

	nodex "github.com/tanpawarit/Chative-Support-Router/agent/nodes"
)

type Config struct {
	// EscalationPolicy is "force" or "router"; see nodex.EscalationPolicy.
	EscalationPolicy string        `envconfig:"ESCALATION_POLICY" split_words:"true" default:"force" validate:"oneof=force router"`
	RetrieveK        int           `envconfig:"RETRIEVE_K" split_words:"true" default:"5" validate:"gte=1,lte=20"`
	Timeout          time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"2m" validate:"gte=0"`
}

func (c Config) policy() (nodex.EscalationPolicy, error) {
	return nodex.ParseEscalationPolicy(c.EscalationPolicy)
}
