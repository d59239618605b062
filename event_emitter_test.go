package wssession

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterSingleListener(t *testing.T) {
	emitter := NewEventEmitter[EventType, int]()
	var results []int

	emitter.On(EventMessage, func(data int) {
		results = append(results, data)
	})

	emitter.Emit(EventMessage, 42)

	assert.Equal(t, []int{42}, results)
}

func TestEmitterListenersRunInRegistrationOrder(t *testing.T) {
	emitter := NewEventEmitter[EventType, int]()
	var results []int

	emitter.On(EventOpen, func(data int) {
		results = append(results, data)
	})
	emitter.On(EventOpen, func(data int) {
		results = append(results, data*2)
	})

	emitter.Emit(EventOpen, 10)

	assert.Equal(t, []int{10, 20}, results)
}

func TestEmitterNoListeners(t *testing.T) {
	emitter := NewEventEmitter[EventType, int]()
	// When emitting an event with no listeners, no error or call should occur.
	emitter.Emit(EventClose, 100)
	assert.Zero(t, emitter.Len(EventClose))
}

func TestEmitterKeepsEventsApart(t *testing.T) {
	emitter := NewEventEmitter[EventType, int]()
	var openResult, closeResult int

	emitter.On(EventOpen, func(data int) {
		openResult = data
	})
	emitter.On(EventClose, func(data int) {
		closeResult = data
	})

	emitter.Emit(EventOpen, 5)
	emitter.Emit(EventClose, 15)

	assert.Equal(t, 5, openResult)
	assert.Equal(t, 15, closeResult)
}

func TestEmitterListenerCanRegisterDuringEmit(t *testing.T) {
	emitter := NewEventEmitter[EventType, int]()
	calls := 0

	emitter.On(EventOpen, func(int) {
		calls++
		emitter.On(EventOpen, func(int) { calls++ })
	})

	emitter.Emit(EventOpen, 1)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, emitter.Len(EventOpen))
}

func TestEmitterClose(t *testing.T) {
	emitter := NewEventEmitter[EventType, int]()
	called := false
	emitter.On(EventError, func(int) { called = true })

	emitter.Close()
	emitter.Emit(EventError, 1)

	assert.False(t, called)
}

func TestEmitterConcurrent(t *testing.T) {
	emitter := NewEventEmitter[EventType, int]()
	var mu sync.Mutex
	var results []int
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			emitter.On(EventMessage, func(data int) {
				mu.Lock()
				results = append(results, data+i)
				mu.Unlock()
			})
		}(i)
	}
	wg.Wait()

	for j := 0; j < 10; j++ {
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			emitter.Emit(EventMessage, j)
		}(j)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	// 10 listeners * 10 emissions
	assert.Len(t, results, 100)
}
