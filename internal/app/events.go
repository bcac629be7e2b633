package app

import (
	"log/slog"

	"dispatch/internal/config"
	"dispatch/internal/events"
)

// Publishers holds the event sinks fed by the notification service.
type Publishers struct {
	Hub   *events.Hub
	Kafka *events.KafkaPublisher
}

// NewPublishers creates the live hub and, when configured, the Kafka
// publisher.
func NewPublishers(cfg config.KafkaConfig, logger *slog.Logger) *Publishers {
	p := &Publishers{Hub: events.NewHub(logger)}
	if cfg.Enabled() {
		p.Kafka = events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
		logger.Info("publishing fleet events to kafka", "topic", cfg.Topic, "brokers", cfg.Brokers)
	}
	return p
}

// List returns the active publishers.
func (p *Publishers) List() []events.Publisher {
	list := []events.Publisher{p.Hub}
	if p.Kafka != nil {
		list = append(list, p.Kafka)
	}
	return list
}

// Close releases every publisher.
func (p *Publishers) Close() error {
	p.Hub.Close()
	if p.Kafka != nil {
		return p.Kafka.Close()
	}
	return nil
}
