package queue

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueExists   = errors.New("queue already exists")
	ErrQueueNotFound = errors.New("queue not found")
)

// Message is an opaque payload owned by the Manager once enqueued.
type Message []byte

// Observer is notified about registry activity. size is -1 when an
// operation failed and the size did not change.
type Observer interface {
	QueueCreated(name string, capacity int)
	QueueDestroyed(name string, dropped int)
	Operation(name, op, result string, size int)
}

type nopObserver struct{}

func (nopObserver) QueueCreated(string, int) {}
func (nopObserver) QueueDestroyed(string, int) {}
func (nopObserver) Operation(string, string, string, int) {}

type Stats struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	State    string `json:"state"`
}

type ManagerOption func(*Manager)

func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) { m.obs = o }
}

// Manager is a set of named bounded queues. Every call holds the manager
// lock, which is what makes the single-threaded Queue usable from HTTP
// handlers.
type Manager struct {
	mu              sync.Mutex
	queues          map[string]*Queue[Message]
	defaultCapacity int
	log             *zap.Logger
	obs             Observer
}

func NewManager(defaultCapacity int, opts ...ManagerOption) *Manager {
	m := &Manager{
		queues:          make(map[string]*Queue[Message]),
		defaultCapacity: defaultCapacity,
		log:             zap.NewNop(),
		obs:             nopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) DefaultCapacity() int { return m.defaultCapacity }

func (m *Manager) Create(name string, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queues[name]; ok {
		return ErrQueueExists
	}
	_, err := m.create(name, capacity)
	return err
}

func (m *Manager) create(name string, capacity int) (*Queue[Message], error) {
	q, err := New[Message](capacity)
	if err != nil {
		return nil, err
	}
	m.queues[name] = q
	m.obs.QueueCreated(name, capacity)
	m.log.Info("queue created", zap.String("queue", name), zap.Int("capacity", capacity))
	return q, nil
}

// GetOrCreate returns the stats of name, creating it with the default
// capacity if needed.
func (m *Manager) GetOrCreate(name string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.getOrCreate(name)
	if err != nil {
		return Stats{}, err
	}
	return statsOf(name, q), nil
}

func (m *Manager) getOrCreate(name string) (*Queue[Message], error) {
	if q, ok := m.queues[name]; ok {
		return q, nil
	}
	return m.create(name, m.defaultCapacity)
}

// Enqueue copies payload into the named queue, creating the queue with the
// default capacity on first use.
func (m *Manager) Enqueue(name string, payload []byte) error {
	if len(payload) == 0 {
		return opErr("insert", UninitializedItem)
	}
	msg := make(Message, len(payload))
	copy(msg, payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	q, err := m.getOrCreate(name)
	if err != nil {
		return err
	}
	err = q.Insert(&msg)
	m.record(name, "enqueue", q, err)
	return err
}

func (m *Manager) Dequeue(name string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return nil, ErrQueueNotFound
	}
	msg, err := q.Remove()
	m.record(name, "dequeue", q, err)
	if err != nil {
		return nil, err
	}
	return *msg, nil
}

func (m *Manager) record(name, op string, q *Queue[Message], err error) {
	size := q.Size()
	if err != nil {
		size = -1
		m.log.Debug("queue operation rejected",
			zap.String("queue", name), zap.String("op", op), zap.Error(err))
	}
	m.obs.Operation(name, op, resultLabel(err), size)
}

func resultLabel(err error) string {
	code := CodeOf(err)
	if code < 0 {
		return "error"
	}
	return code.String()
}

func (m *Manager) Stats(name string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return Stats{}, ErrQueueNotFound
	}
	return statsOf(name, q), nil
}

func statsOf(name string, q *Queue[Message]) Stats {
	return Stats{Name: name, Size: q.Size(), Capacity: q.Capacity(), State: q.State().String()}
}

func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.queues))
	for name := range m.queues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Delete destroys the named queue and returns how many messages it still
// held.
func (m *Manager) Delete(name string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return 0, ErrQueueNotFound
	}
	return m.destroy(name, q), nil
}

func (m *Manager) destroy(name string, q *Queue[Message]) int {
	dropped := 0
	Destroy(&q, func(msg *Message) {
		dropped++
		m.log.Debug("dropping message", zap.String("queue", name), zap.Int("bytes", len(*msg)))
	})
	delete(m.queues, name)
	m.obs.QueueDestroyed(name, dropped)
	m.log.Info("queue destroyed", zap.String("queue", name), zap.Int("dropped", dropped))
	return dropped
}

// Close destroys every queue. The manager stays usable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, q := range m.queues {
		m.destroy(name, q)
	}
}
