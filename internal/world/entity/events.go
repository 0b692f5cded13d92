package entity

// EventSink односторонний канал сообщений для игрока (урон, усталость, смерти)
type EventSink interface {
	LogEvent(message string)
}

// NopSink отбрасывает все сообщения
type NopSink struct{}

// LogEvent реализует EventSink
func (NopSink) LogEvent(string) {}

// SinkFunc адаптирует функцию к EventSink
type SinkFunc func(message string)

// LogEvent реализует EventSink
func (f SinkFunc) LogEvent(message string) {
	f(message)
}
