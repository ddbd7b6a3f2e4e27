package service

import "sync"

// Fulfilled transforms a value travelling down the chain. Returning an error
// rejects the chain from that point on.
type Fulfilled[T any] func(T) (T, error)

// Rejected receives the error of a rejected chain. Returning a nil error
// resumes the chain with the returned value.
type Rejected[T any] func(error) (T, error)

type handler[T any] struct {
	fulfilled Fulfilled[T]
	rejected  Rejected[T]
}

// InterceptorManager holds an ordered list of interceptors. Either function of
// a pair may be nil, in which case the value or error passes through.
type InterceptorManager[T any] struct {
	mu       sync.RWMutex
	handlers []*handler[T]
	reverse  bool

	// wrap decorates the error of a failing fulfilled handler with its input.
	wrap func(T, error) error
}

// Use registers an interceptor pair and returns an id for Eject.
func (m *InterceptorManager[T]) Use(onFulfilled Fulfilled[T], onRejected Rejected[T]) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, &handler[T]{fulfilled: onFulfilled, rejected: onRejected})

	return len(m.handlers) - 1
}

// Eject removes the interceptor registered under id.
func (m *InterceptorManager[T]) Eject(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id >= 0 && id < len(m.handlers) {
		m.handlers[id] = nil
	}
}

// Len returns the number of registered interceptors.
func (m *InterceptorManager[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0

	for _, h := range m.handlers {
		if h != nil {
			n++
		}
	}

	return n
}

// run settles the chain like a sequence of promise then(onFulfilled, onRejected)
// calls: each pair sees either the value or the error left by the previous one.
func (m *InterceptorManager[T]) run(v T, err error) (T, error) {
	m.mu.RLock()
	handlers := make([]*handler[T], len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.RUnlock()

	for i := range handlers {
		h := handlers[i]
		if m.reverse {
			h = handlers[len(handlers)-1-i]
		}

		if h == nil {
			continue
		}

		switch {
		case err == nil && h.fulfilled != nil:
			in := v

			v, err = h.fulfilled(in)
			if err != nil && m.wrap != nil {
				err = m.wrap(in, err)
			}
		case err != nil && h.rejected != nil:
			v, err = h.rejected(err)
		}
	}

	return v, err
}

// Interceptors groups the request and response chains of a client.
// Request interceptors run last registered first, response interceptors in
// registration order. An error returned by an interceptor reaches the later
// handlers as an *Error carrying the request, and for response interceptors
// the response, it failed on.
type Interceptors struct {
	Request  InterceptorManager[*Request]
	Response InterceptorManager[*Response]
}

func newInterceptors() *Interceptors {
	i := &Interceptors{}
	i.Request.reverse = true
	i.Request.wrap = withRequest
	i.Response.wrap = withResponse

	return i
}
