package scene

import (
	"sort"
	"sync"

	"physgun-server/backend/internal/physics"
)

// Manager реестр объектов сцены одного участника
type Manager struct {
	objects map[ObjectID]*GameObject
	bodies  map[string]*GameObject // ID тела -> объект-владелец
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		objects: make(map[ObjectID]*GameObject),
		bodies:  make(map[string]*GameObject),
	}
}

// Add регистрирует объект и все его тела
func (m *Manager) Add(obj *GameObject) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[obj.ID] = obj
	if obj.Physics == nil {
		return
	}
	for _, b := range obj.Physics.Rigid() {
		if b != nil {
			m.bodies[b.ID()] = obj
		}
	}
}

// Get возвращает объект по идентификатору
func (m *Manager) Get(id ObjectID) (*GameObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, exists := m.objects[id]
	return obj, exists
}

// Resolve возвращает валидный объект или nil. Пустой ID означает "нет объекта".
func (m *Manager) Resolve(id ObjectID) *GameObject {
	if id == "" {
		return nil
	}
	obj, _ := m.Get(id)
	if !obj.IsValid() {
		return nil
	}
	return obj
}

// Destroy уничтожает объект: все ссылки на него становятся невалидными
func (m *Manager) Destroy(id ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, exists := m.objects[id]
	if !exists {
		return
	}
	obj.destroy()
	delete(m.objects, id)
	if obj.Physics == nil {
		return
	}
	for _, b := range obj.Physics.Rigid() {
		if b != nil {
			delete(m.bodies, b.ID())
		}
	}
}

// ObjectOfBody объект, которому принадлежит тело
func (m *Manager) ObjectOfBody(b physics.Body) *GameObject {
	if b == nil || !b.Valid() {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bodies[b.ID()]
}

// All возвращает объекты, отсортированные по ID
func (m *Manager) All() []*GameObject {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*GameObject, 0, len(m.objects))
	for _, obj := range m.objects {
		result = append(result, obj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// RigidBodies все валидные тела сцены для солвера
func (m *Manager) RigidBodies() []*physics.RigidBody {
	objects := m.All()
	result := make([]*physics.RigidBody, 0, len(objects))
	for _, obj := range objects {
		if obj.Physics == nil {
			continue
		}
		for _, b := range obj.Physics.Rigid() {
			if b.Valid() {
				result = append(result, b)
			}
		}
	}
	return result
}

// Count количество объектов
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
