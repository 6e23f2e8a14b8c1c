package service

import "sync"

type subscription[T any] struct {
	id int
	fn func(T)
}

// subscribers is a small ordered listener registry. Listeners are invoked
// outside of any store lock, in registration order.
type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	list []subscription[T]
}

func (s *subscribers[T]) add(fn func(T)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.list = append(s.list, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *subscribers[T]) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.list {
		if sub.id == id {
			s.list = append(s.list[:i:i], s.list[i+1:]...)
			return
		}
	}
}

func (s *subscribers[T]) publish(v T) {
	s.mu.Lock()
	list := make([]subscription[T], len(s.list))
	copy(list, s.list)
	s.mu.Unlock()

	for _, sub := range list {
		sub.fn(v)
	}
}

func (s *subscribers[T]) clear() {
	s.mu.Lock()
	s.list = nil
	s.mu.Unlock()
}
