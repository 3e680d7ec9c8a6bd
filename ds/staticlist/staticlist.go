// Package staticlist 定长数组实现的静态链表, 空闲槽位串成单链表, 分配和释放都是 O(1)
package staticlist

type Node[T any] struct {
	Data T
	Next int
}

type StaticList[T any] struct {
	datas []Node[T]
	free  int
	used  int
	zero  T // 零值
}

const Null = -1

func NewStaticList[T any](size int) *StaticList[T] {
	if size <= 0 {
		panic("staticlist: size must be positive")
	}
	list := &StaticList[T]{
		datas: make([]Node[T], size),
	}
	list.Reset()
	return list
}

// Malloc 分配一个槽位, 已满时返回 Null
func (list *StaticList[T]) Malloc() int {
	p := list.free
	if p != Null {
		slot := &list.datas[p]
		list.free = slot.Next
		slot.Next = Null
		list.used++
	}
	return p
}

// Free 释放槽位并清空数据
func (list *StaticList[T]) Free(p int) {
	node := &list.datas[p]
	node.Data = list.zero
	node.Next = list.free
	list.free = p
	list.used--
}

func (list *StaticList[T]) GetNode(p int) *Node[T] {
	return &list.datas[p]
}

func (list *StaticList[T]) GetDataValue(p int) T {
	return list.datas[p].Data
}

func (list *StaticList[T]) SetDataValue(p int, val T) {
	list.datas[p].Data = val
}

func (list *StaticList[T]) GetDataPointer(p int) *T {
	return &list.datas[p].Data
}

func (list *StaticList[T]) Len() int {
	return list.used
}

func (list *StaticList[T]) Cap() int {
	return len(list.datas)
}

func (list *StaticList[T]) Full() bool {
	return list.free == Null
}

// Reset 清空所有槽位, 已分配出去的下标全部失效
func (list *StaticList[T]) Reset() {
	size := len(list.datas)
	for i := 0; i < size-1; i++ {
		list.datas[i].Data = list.zero
		list.datas[i].Next = i + 1
	}
	list.datas[size-1].Data = list.zero
	list.datas[size-1].Next = Null
	list.free = 0
	list.used = 0
}
