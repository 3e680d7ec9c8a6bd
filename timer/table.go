package timer

import (
	"fmt"

	"github.com/armon/go-radix"

	"github.com/fixkme/gotimer/ds/staticlist"
	"github.com/fixkme/gotimer/errs"
	utime "github.com/fixkme/gotimer/time"
)

// Handle 表中定时器的句柄, 高 32 位是代数, 低 32 位是下标. 零值无效.
type Handle uint64

func makeHandle(index int, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(index)))
}

func (h Handle) index() int {
	return int(uint32(h))
}

func (h Handle) gen() uint32 {
	return uint32(h >> 32)
}

func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.index(), h.gen())
}

// TableFunc 表中定时器的到期回调
type TableFunc func(tb *Table, h Handle, data any)

type tableSlot struct {
	timer Timer
	fn    TableFunc
	data  any
	name  string
}

// Table 定长的定时器表, 调用者只持有句柄, 定时器内存由表管理.
// 句柄释放后代数加一, 旧句柄的操作返回 errs.NotFound.
type Table struct {
	svc   *Service
	slots *staticlist.StaticList[tableSlot]
	gens  []uint32
	names *radix.Tree
}

func NewTable(s *Service, size int) *Table {
	tb := &Table{
		svc:   s,
		slots: staticlist.NewStaticList[tableSlot](size),
		gens:  make([]uint32, size),
		names: radix.New(),
	}
	for i := range tb.gens {
		tb.gens[i] = 1
	}
	return tb
}

func (tb *Table) Service() *Service {
	return tb.svc
}

// Len 已分配的句柄数
func (tb *Table) Len() int {
	return tb.slots.Len()
}

func (tb *Table) Cap() int {
	return tb.slots.Cap()
}

func (tb *Table) slot(h Handle) (*tableSlot, error) {
	p := h.index()
	if h == 0 || p >= len(tb.gens) || tb.gens[p] != h.gen() {
		return nil, errs.NotFound.Printf("handle=%s", h)
	}
	return tb.slots.GetDataPointer(p), nil
}

// New 分配一个 Idle 定时器
func (tb *Table) New(fn TableFunc, data any) (Handle, error) {
	if fn == nil {
		panic("timer: nil table func")
	}
	p := tb.slots.Malloc()
	if p == staticlist.Null {
		return 0, errs.Full.Printf("cap=%d", tb.slots.Cap())
	}
	h := makeHandle(p, tb.gens[p])
	slot := tb.slots.GetDataPointer(p)
	slot.fn = fn
	slot.data = data
	slot.timer.Init(func(*Timer) {
		slot.fn(tb, h, slot.data)
	})
	return h, nil
}

func (tb *Table) ArmAt(h Handle, at utime.Timespec) error {
	slot, err := tb.slot(h)
	if err != nil {
		return err
	}
	tb.svc.ArmAt(&slot.timer, at)
	return nil
}

func (tb *Table) ArmInMsec(h Handle, msec uint32) error {
	slot, err := tb.slot(h)
	if err != nil {
		return err
	}
	tb.svc.ArmInMsec(&slot.timer, msec)
	return nil
}

func (tb *Table) ArmInSec(h Handle, sec uint32) error {
	slot, err := tb.slot(h)
	if err != nil {
		return err
	}
	tb.svc.ArmInSec(&slot.timer, sec)
	return nil
}

func (tb *Table) Cancel(h Handle) error {
	slot, err := tb.slot(h)
	if err != nil {
		return err
	}
	tb.svc.Cancel(&slot.timer)
	return nil
}

func (tb *Table) State(h Handle) (State, error) {
	slot, err := tb.slot(h)
	if err != nil {
		return Idle, err
	}
	return slot.timer.State(), nil
}

// Timer 句柄对应的定时器, 只能读取状态, 不能保存
func (tb *Table) Timer(h Handle) (*Timer, error) {
	slot, err := tb.slot(h)
	if err != nil {
		return nil, err
	}
	return &slot.timer, nil
}

// Free 取消并释放定时器. 回调执行中的定时器不能释放, 返回 errs.Busy.
func (tb *Table) Free(h Handle) error {
	slot, err := tb.slot(h)
	if err != nil {
		return err
	}
	if slot.timer.state == Running {
		return errs.Busy.Printf("handle=%s", h)
	}
	tb.svc.Cancel(&slot.timer)
	if slot.name != "" {
		tb.names.Delete(slot.name)
	}
	p := h.index()
	tb.gens[p]++
	if tb.gens[p] == 0 {
		tb.gens[p] = 1
	}
	tb.slots.Free(p)
	return nil
}

// Name 给定时器命名, 名字在表内唯一, 空名字表示去掉名字
func (tb *Table) Name(h Handle, name string) error {
	slot, err := tb.slot(h)
	if err != nil {
		return err
	}
	if name == slot.name {
		return nil
	}
	if name != "" {
		if _, ok := tb.names.Get(name); ok {
			return errs.Duplicate.Printf("name=%s", name)
		}
		tb.names.Insert(name, h)
	}
	if slot.name != "" {
		tb.names.Delete(slot.name)
	}
	slot.name = name
	return nil
}

func (tb *Table) Lookup(name string) (Handle, bool) {
	v, ok := tb.names.Get(name)
	if !ok {
		return 0, false
	}
	return v.(Handle), true
}

// CancelPrefix 取消名字以 prefix 开头的所有等待中的定时器, 返回取消的数量
func (tb *Table) CancelPrefix(prefix string) int {
	var handles []Handle
	tb.names.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		handles = append(handles, v.(Handle))
		// 返回false表示继续walk
		return false
	})
	n := 0
	for _, h := range handles {
		slot, err := tb.slot(h)
		if err != nil || !slot.timer.Pending() {
			continue
		}
		tb.svc.Cancel(&slot.timer)
		n++
	}
	return n
}
