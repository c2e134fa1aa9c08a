package utils

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	// Несинхронизированный счетчик: без сериализации по ключу
	// гонка была бы замечена детектором гонок
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(1)
			defer km.Unlock(1)
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter: got %d want %d", counter, 100)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	// Блокировка одного ключа не мешает другому
	km.Lock(1)
	done := make(chan struct{})
	go func() {
		km.Lock(2)
		km.Unlock(2)
		close(done)
	}()
	<-done
	km.Unlock(1)
}
