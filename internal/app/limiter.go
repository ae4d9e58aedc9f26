package app

import "sync"

type chatLock struct {
	mu   sync.Mutex
	refs int // держатели и ожидающие
}

// ChatLimiter выполняет обновления одного чата по очереди.
// Запись о чате живёт, пока её кто-то держит или ждёт, поэтому map не растёт с числом чатов.
type ChatLimiter struct {
	mu   sync.Mutex
	byID map[int64]*chatLock
}

func NewChatLimiter() *ChatLimiter {
	return &ChatLimiter{byID: make(map[int64]*chatLock)}
}

func (l *ChatLimiter) lock(chatID int64) func() {
	l.mu.Lock()
	cl, ok := l.byID[chatID]
	if !ok {
		cl = &chatLock{}
		l.byID[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.byID, chatID)
		}
		l.mu.Unlock()
	}
}

func (l *ChatLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}
