package kafka_config

import "time"

const (
	// Empty by default: events are only published when brokers are configured.
	DefaultKafkaBrokers = ""

	DefaultBookingTopic    = "booking-events"
	DefaultBookingDLQTopic = "booking-events-dlq"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerWriteTimeout = 5 * time.Second
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"

	DefaultEnableMiddleware = true
)
