package events

import (
	"github.com/asaskevich/EventBus"
	"github.com/sirupsen/logrus"
)

// Bus adapts EventBus to the domain Publisher port. Subscribers run
// asynchronously so the tick loop never waits on an observer.
type Bus struct {
	bus    EventBus.Bus
	logger *logrus.Entry
}

// New creates an empty bus.
func New(logger *logrus.Logger) *Bus {
	if logger == nil {
		logger = logrus.New()
	}
	return &Bus{
		bus:    EventBus.New(),
		logger: logger.WithField("component", "event_bus"),
	}
}

// Publish delivers the payload to every subscriber of the topic.
func (b *Bus) Publish(topic string, payload any) {
	b.bus.Publish(topic, payload)
}

// Subscribe registers an async callback for a topic.
func (b *Bus) Subscribe(topic string, callbackFn any) error {
	if err := b.bus.SubscribeAsync(topic, callbackFn, false); err != nil {
		return err
	}
	b.logger.WithField("topic", topic).Debug("subscribed")
	return nil
}

// WaitAsync blocks until all in-flight callbacks finish. Used on shutdown
// and in tests.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
