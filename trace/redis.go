package trace

import (
	"context"
	"strconv"
	"time"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/timer"
	"github.com/redis/go-redis/v9"
)

const (
	defaultStreamMaxLen = 100000
	redisWriteTimeout   = time.Second
)

// RedisSink 把事件追加到 redis stream, 每个事件一个 entry
type RedisSink struct {
	rdb     redis.Cmdable
	stream  string
	maxLen  int64
	session string
}

func NewRedisSink(rdb redis.Cmdable, stream string, maxLen int64, session string) *RedisSink {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &RedisSink{rdb: rdb, stream: stream, maxLen: maxLen, session: session}
}

func (s *RedisSink) Write(ev *Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisWriteTimeout)
	defer cancel()
	return s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: []any{
			"session", s.session,
			"seq", ev.Seq,
			"kind", uint8(ev.Kind),
			"timer", ev.Timer,
			"tick", ev.Tick,
			"sec", ev.Sec,
			"nsec", ev.Nsec,
			"arg", ev.Arg,
			"stamp", ev.Stamp,
		},
	}).Err()
}

func (s *RedisSink) Close() error {
	return nil
}

// ReadStream 按顺序读取 stream 中 session 的事件, session 为空时读取全部
func ReadStream(ctx context.Context, rdb redis.Cmdable, stream string, session string, fn func(ev *Event) error) error {
	const batch = 512
	start := "-"
	for {
		msgs, err := rdb.XRangeN(ctx, stream, start, "+", batch).Result()
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if session != "" && msg.Values["session"] != session {
				continue
			}
			var ev Event
			if err = eventFromValues(msg.Values, &ev); err != nil {
				return err
			}
			if err = fn(&ev); err != nil {
				return err
			}
		}
		if len(msgs) < batch {
			return nil
		}
		// 排除已读的最后一条
		start = "(" + msgs[len(msgs)-1].ID
	}
}

func eventFromValues(values map[string]any, ev *Event) error {
	get := func(key string) (int64, error) {
		s, ok := values[key].(string)
		if !ok {
			return 0, errs.Decode.Printf("field=%s", key)
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errs.Decode.Wrap(err)
		}
		return v, nil
	}
	fields := []*int64{&ev.Timer, &ev.Tick, &ev.Sec, &ev.Nsec, &ev.Arg, &ev.Stamp}
	for i, key := range []string{"timer", "tick", "sec", "nsec", "arg", "stamp"} {
		v, err := get(key)
		if err != nil {
			return err
		}
		*fields[i] = v
	}
	seq, err := get("seq")
	if err != nil {
		return err
	}
	kind, err := get("kind")
	if err != nil {
		return err
	}
	ev.Seq = uint64(seq)
	ev.Kind = timer.Op(kind)
	if !ev.Kind.Valid() {
		return errs.Decode.Printf("kind=%d", kind)
	}
	return nil
}
