package timer

import (
	"testing"

	"github.com/fixkme/gotimer/tick"
	"github.com/stretchr/testify/assert"
)

func listTicks(l *_List) []tick.Tick {
	var ticks []tick.Tick
	l.Range(func(t *Timer) bool {
		ticks = append(ticks, t.tick)
		return true
	})
	return ticks
}

func TestInsertSorted(t *testing.T) {
	l := newTimerList()
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.Front())
	_, ok := l.MinTick()
	assert.False(t, ok)

	a := &Timer{tick: 5}
	b := &Timer{tick: 3}
	c := &Timer{tick: 5}
	d := &Timer{tick: 9}
	for _, tm := range []*Timer{a, b, c, d} {
		l.InsertSorted(tm)
	}
	assert.Equal(t, []tick.Tick{3, 5, 5, 9}, listTicks(l))
	// 相同 tick 保持插入顺序
	assert.Same(t, a, b.next)
	assert.Same(t, c, a.next)
	assert.Same(t, b, l.Front())
	assert.Equal(t, 4, l.Len())

	a.removeFromList()
	assert.Nil(t, a.prev)
	assert.Equal(t, []tick.Tick{3, 5, 9}, listTicks(l))
}

func TestDetach(t *testing.T) {
	l := newTimerList()
	for _, tk := range []tick.Tick{7, 2, 4} {
		l.PushBack(&Timer{tick: tk})
	}
	min, ok := l.MinTick()
	assert.True(t, ok)
	assert.Equal(t, tick.Tick(2), min)

	var ticks []tick.Tick
	for tm := l.Detach(); tm != nil; tm = tm.next {
		ticks = append(ticks, tm.tick)
	}
	assert.Equal(t, []tick.Tick{7, 2, 4}, ticks)
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.Detach())
}
