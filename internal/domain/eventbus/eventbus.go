package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	asyncBus *AsyncEventBus
	once     sync.Once
)

func initBuses() {
	instance = New()
	asyncBus = NewAsyncEventBus(10)
	asyncBus.Start()
}

// Get returns the process-wide synchronous event bus.
func Get() evbus.Bus {
	once.Do(initBuses)
	return instance
}

// GetAsync returns the process-wide asynchronous event bus.
func GetAsync() *AsyncEventBus {
	once.Do(initBuses)
	return asyncBus
}

// New creates a fresh synchronous bus, independent of the singletons.
func New() evbus.Bus {
	return evbus.New()
}

// Publish publishes a synchronous event.
func Publish(topic string, args ...interface{}) {
	Get().Publish(topic, args...)
}

// PublishAsync hands an event to the worker pool.
func PublishAsync(topic string, args ...interface{}) {
	GetAsync().PublishAsync(topic, args...)
}

// Subscribe registers a synchronous handler.
func Subscribe(topic string, fn interface{}) error {
	return Get().Subscribe(topic, fn)
}

// SubscribeAsync registers a handler on the async bus.
func SubscribeAsync(topic string, fn interface{}) error {
	return GetAsync().SubscribeAsync(topic, fn)
}

// Shutdown stops the async worker pool.
func Shutdown() {
	if asyncBus != nil {
		asyncBus.Stop()
	}
}
