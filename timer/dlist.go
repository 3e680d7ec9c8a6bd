package timer

import "github.com/fixkme/gotimer/tick"

// _List 带哨兵的侵入式双向链表, 节点就是 Timer 本身
type _List struct {
	root Timer //哨兵
}

func newTimerList() *_List {
	l := new(_List)
	l.root.prev = &l.root
	l.root.next = &l.root
	return l
}

func (t *Timer) removeFromList() {
	t.prev.next = t.next
	t.next.prev = t.prev
	t.prev = nil
	t.next = nil
}

func (l *_List) insertBefore(t, at *Timer) {
	t.prev = at.prev
	t.next = at
	at.prev.next = t
	at.prev = t
}

func (l *_List) PushBack(t *Timer) {
	l.insertBefore(t, &l.root)
}

// InsertSorted 按 tick 有序插入, tick 相同的插到最后
func (l *_List) InsertSorted(t *Timer) {
	// 大多数情况新定时器比已有的都晚, 从尾部往前找
	cur := l.root.prev
	for cur != &l.root && cur.tick > t.tick {
		cur = cur.prev
	}
	l.insertBefore(t, cur.next)
}

func (l *_List) IsEmpty() bool {
	return l.root.next == &l.root
}

// Front 空链表返回 nil
func (l *_List) Front() *Timer {
	if l.IsEmpty() {
		return nil
	}
	return l.root.next
}

// MinTick 遍历求最小 tick, 空链表返回 false
func (l *_List) MinTick() (tick.Tick, bool) {
	if l.IsEmpty() {
		return 0, false
	}
	min := tick.Max
	for t := l.root.next; t != &l.root; t = t.next {
		if t.tick < min {
			min = t.tick
		}
	}
	return min, true
}

// Len O(n)
func (l *_List) Len() int {
	n := 0
	for t := l.root.next; t != &l.root; t = t.next {
		n++
	}
	return n
}

// Detach 摘下全部节点返回链表头, 节点之间仍然用 next 相连, 以 nil 结尾
func (l *_List) Detach() *Timer {
	if l.IsEmpty() {
		return nil
	}
	head := l.root.next
	l.root.prev.next = nil
	l.root.prev = &l.root
	l.root.next = &l.root
	return head
}

// Range 遍历链表中的节点, fn不能修改链表
func (l *_List) Range(fn func(t *Timer) bool) {
	for t := l.root.next; t != &l.root; t = t.next {
		if !fn(t) {
			break
		}
	}
}
