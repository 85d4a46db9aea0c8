package scene

import "sort"

// Стандартные теги объектов сцены
const (
	TagSolid     = "solid"
	TagPlayer    = "player"
	TagDebris    = "debris"
	TagNoCollide = "nocollide"
	TagGrabbed   = "grabbed"
)

// TagSet набор тегов объекта
type TagSet map[string]struct{}

// NewTagSet создает набор из перечисленных тегов
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// HasAny истинно, если есть хотя бы один из тегов
func (s TagSet) HasAny(tags ...string) bool {
	for _, t := range tags {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// Set добавляет или убирает тег
func (s TagSet) Set(tag string, enabled bool) {
	if enabled {
		s[tag] = struct{}{}
		return
	}
	delete(s, tag)
}

// Clone копирует набор
func (s TagSet) Clone() TagSet {
	c := make(TagSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// List возвращает теги в отсортированном виде
func (s TagSet) List() []string {
	result := make([]string, 0, len(s))
	for t := range s {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}
