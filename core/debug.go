package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures one acquisition step for post-mortem analysis
type Event struct {
	Kind    uint8  // Caller-defined event code (0 marks an empty slot)
	Channel uint8  // ADC channel the event belongs to
	Clock   uint32 // Milliseconds since the ring was created
	Value   uint32 // Context-dependent value
}

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16) // Buffer 16 messages
	go debugOutputWorker()
}

// debugOutputWorker runs in background, drains debug channel
func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	if debugChan == nil {
		DebugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
		// Channel full, drop message (non-blocking)
	}
}

// EventRing is a fixed-size ring of the most recent events.
// It is written from the main loop only.
type EventRing struct {
	events [EventRingSize]Event
	head   uint8 // Next write position
	count  uint32
}

// Record stores an event, overwriting the oldest once the ring is full
func (r *EventRing) Record(kind, channel uint8, clock, value uint32) {
	idx := r.head
	r.events[idx] = Event{
		Kind:    kind,
		Channel: channel,
		Clock:   clock,
		Value:   value,
	}
	r.head = (idx + 1) % EventRingSize
	r.count++
}

// Total returns the number of events recorded since creation or Clear
func (r *EventRing) Total() uint32 {
	return r.count
}

// Events returns the recorded events, oldest first
func (r *EventRing) Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := r.head
	for i := uint8(0); i < EventRingSize; i++ {
		evt := r.events[(start+i)%EventRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Dump writes the ring through the debug writer, oldest first.
// name translates event codes to labels.
func (r *EventRing) Dump(name func(kind uint8) string) {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Event Ring Dump ===")
	debugPrintln("[TRACE] Total events recorded: " + Utoa(r.count))
	for _, evt := range r.Events() {
		debugPrintln("[TRACE] " + name(evt.Kind) +
			" ch=" + Itoa(int(evt.Channel)) +
			" clock=" + Utoa(evt.Clock) +
			" v=" + Utoa(evt.Value))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// Clear empties the ring
func (r *EventRing) Clear() {
	for i := range r.events {
		r.events[i] = Event{}
	}
	r.head = 0
	r.count = 0
}
