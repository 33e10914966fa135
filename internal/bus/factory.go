package bus

import (
	"fmt"
	"strings"

	"github.com/leadscout/lead-scout/internal/config"
	"github.com/leadscout/lead-scout/internal/pkg/errors"
)

// New creates a Bus instance based on the configuration.
func New(cfg config.BusConfig) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(), nil

	case "kafka":
		brokers := ParseBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeInvalidRequest, "kafka brokers not configured")
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: "lead-scout",
			ClientID:      "lead-scout-bus",
		})

	default:
		return nil, errors.New(errors.CodeInvalidRequest,
			fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}

// ParseBrokers splits a comma-separated broker list, dropping empty entries.
func ParseBrokers(s string) []string {
	var brokers []string
	for _, part := range strings.Split(s, ",") {
		if b := strings.TrimSpace(part); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
