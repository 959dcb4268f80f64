package sse

import (
	"sync"
)

// subscriber 單一 SSE 連線的緩衝區
type subscriber[T any] struct {
	ch     chan T
	missed int
}

// Channel 一個拍賣的所有 SSE 連線
// 每個連線有獨立的緩衝區，廣播不等待慢的連線
type Channel[T any] struct {
	mu          sync.RWMutex
	subscribers map[<-chan T]*subscriber[T]
	bufferSize  int
}

func NewChannel[T any](bufferSize int) IChannel[T] {
	return &Channel[T]{
		subscribers: make(map[<-chan T]*subscriber[T]),
		bufferSize:  max(bufferSize, 0),
	}
}

func (c *Channel[T]) Subscribe() <-chan T {
	s := &subscriber[T]{ch: make(chan T, c.bufferSize)}

	c.mu.Lock()
	c.subscribers[s.ch] = s
	c.mu.Unlock()
	return s.ch
}

// Unsubscribe 移除並關閉通道，重複呼叫不會有影響
func (c *Channel[T]) Unsubscribe(ch <-chan T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.subscribers[ch]
	if !ok {
		return
	}
	delete(c.subscribers, ch)
	close(s.ch)
}

func (c *Channel[T]) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch, s := range c.subscribers {
		delete(c.subscribers, ch)
		close(s.ch)
	}
}

// Broadcast 緩衝區已滿的連線會錯過這則事件
// missed 只在寫鎖下修改，因此這裡使用寫鎖
func (c *Channel[T]) Broadcast(message T) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for _, s := range c.subscribers {
		select {
		case s.ch <- message:
		default:
			s.missed++
			dropped++
		}
	}
	return dropped
}

// Missed 指定連線累計錯過的事件數
func (c *Channel[T]) Missed(ch <-chan T) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.subscribers[ch]; ok {
		return s.missed
	}
	return 0
}

func (c *Channel[T]) IsIdle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers) == 0
}
