package telemetry

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Виды событий
const (
	KindJoin   = "join"
	KindLeave  = "leave"
	KindFreeze = "freeze"
	KindGrab   = "grab"
)

// Event одно событие сессии
type Event struct {
	Timestamp   int64      `json:"timestamp"` // Время в миллисекундах
	Kind        string     `json:"kind"`
	Participant string     `json:"participant,omitempty"`
	Object      string     `json:"object,omitempty"`
	Bone        int        `json:"bone,omitempty"`
	Position    [3]float64 `json:"position,omitempty"`
}

// Counter счетчик событий одного вида
type Counter struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Recorder хранит последние события и счетчики по видам
type Recorder struct {
	mutex      sync.RWMutex
	enabled    bool
	events     []Event
	maxEntries int
	counters   map[string]int
	now        func() time.Time
}

// NewRecorder создает регистратор, хранящий не более maxEntries событий
func NewRecorder(maxEntries int) *Recorder {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Recorder{
		enabled:    true,
		events:     make([]Event, 0, maxEntries),
		maxEntries: maxEntries,
		counters:   make(map[string]int),
		now:        time.Now,
	}
}

// Record записывает событие. Nil-регистратор ничего не делает.
func (r *Recorder) Record(e Event) {
	if r == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.enabled {
		return
	}
	if e.Timestamp == 0 {
		e.Timestamp = r.now().UnixMilli()
	}

	r.events = append(r.events, e)
	if len(r.events) > r.maxEntries {
		r.events = r.events[1:]
	}
	r.counters[e.Kind]++
}

// Recent последние n событий, от старых к новым
func (r *Recorder) Recent(n int) []Event {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if n <= 0 || n > len(r.events) {
		n = len(r.events)
	}
	out := make([]Event, n)
	copy(out, r.events[len(r.events)-n:])
	return out
}

// Summary счетчики с прошлой сводки, по алфавиту. Счетчики сбрасываются.
func (r *Recorder) Summary() []Counter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := make([]Counter, 0, len(r.counters))
	for kind, count := range r.counters {
		out = append(out, Counter{Kind: kind, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })

	r.counters = make(map[string]int)
	return out
}

// JSON последние события в JSON
func (r *Recorder) JSON() ([]byte, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return json.MarshalIndent(r.events, "", "  ")
}

// SetEnabled включает или выключает запись
func (r *Recorder) SetEnabled(enabled bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.enabled = enabled
}

// Clear очищает события и счетчики
func (r *Recorder) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.events = r.events[:0]
	r.counters = make(map[string]int)
}
