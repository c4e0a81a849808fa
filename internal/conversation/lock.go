package conversation

import "sync"

// KeyedMutex serialises work per chat id while leaving other chats free to run.
// Waiters on the same chat id acquire it in the order they called Lock.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

// keyedEntry exists while a chat id is held; waiters queue behind the holder.
type keyedEntry struct {
	waiters []chan struct{}
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedEntry)}
}

// Lock blocks until the chat id is free and returns its unlock function.
func (k *KeyedMutex) Lock(chatID int64) func() {
	k.mu.Lock()
	e, held := k.locks[chatID]
	if !held {
		k.locks[chatID] = &keyedEntry{}
		k.mu.Unlock()
	} else {
		turn := make(chan struct{})
		e.waiters = append(e.waiters, turn)
		k.mu.Unlock()
		<-turn
	}

	var once sync.Once
	return func() { once.Do(func() { k.release(chatID) }) }
}

// release hands the chat id to the oldest waiter, or frees it.
func (k *KeyedMutex) release(chatID int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e := k.locks[chatID]
	if len(e.waiters) == 0 {
		delete(k.locks, chatID)
		return
	}
	next := e.waiters[0]
	e.waiters = e.waiters[1:]
	close(next)
}

// Held reports how many chat ids currently have a holder.
func (k *KeyedMutex) Held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyedMutex) waiting(chatID int64) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if e, ok := k.locks[chatID]; ok {
		return len(e.waiters)
	}
	return 0
}
