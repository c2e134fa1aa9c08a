package utils

import (
	"sync"
)

// KeyedMutex предоставляет мьютексы по ключу.
// Используется для сериализации платежей по одному займу внутри процесса:
// два одновременных платежа не должны прочитать один и тот же баланс.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewKeyedMutex создает новый KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[uint]*sync.Mutex),
	}
}

// Lock блокирует мьютекс для ключа
func (km *KeyedMutex) Lock(key uint) {
	km.mu.Lock()
	lock, exists := km.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		km.locks[key] = lock
	}
	km.mu.Unlock()

	lock.Lock()
}

// Unlock освобождает мьютекс для ключа
func (km *KeyedMutex) Unlock(key uint) {
	km.mu.Lock()
	lock, exists := km.locks[key]
	km.mu.Unlock()

	if exists {
		lock.Unlock()
	}
}
