package trace

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/fixkme/gotimer/errs"
	"github.com/fixkme/gotimer/timer"
	"google.golang.org/protobuf/encoding/protowire"
)

// 文件格式: magic, 会话 id (length-delimited), 然后每个事件一条 length-delimited 的 protobuf 消息
var magic = []byte("gotimer-trace\x01")

const (
	fieldSeq   protowire.Number = 1
	fieldKind  protowire.Number = 2
	fieldTimer protowire.Number = 3
	fieldTick  protowire.Number = 4
	fieldSec   protowire.Number = 5
	fieldNsec  protowire.Number = 6
	fieldArg   protowire.Number = 7
	fieldStamp protowire.Number = 8

	maxMessageSize = 1 << 10
)

// AppendEvent 把 ev 编码为 length-delimited 记录追加到 b
func AppendEvent(b []byte, ev *Event) []byte {
	var buf [96]byte
	msg := buf[:0]
	msg = protowire.AppendTag(msg, fieldSeq, protowire.VarintType)
	msg = protowire.AppendVarint(msg, ev.Seq)
	msg = protowire.AppendTag(msg, fieldKind, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(ev.Kind))
	if ev.Timer != 0 {
		msg = protowire.AppendTag(msg, fieldTimer, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(ev.Timer))
	}
	msg = protowire.AppendTag(msg, fieldTick, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(ev.Tick))
	msg = protowire.AppendTag(msg, fieldSec, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(ev.Sec))
	msg = protowire.AppendTag(msg, fieldNsec, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(ev.Nsec))
	// arg 可能为 -1
	msg = protowire.AppendTag(msg, fieldArg, protowire.VarintType)
	msg = protowire.AppendVarint(msg, protowire.EncodeZigZag(ev.Arg))
	msg = protowire.AppendTag(msg, fieldStamp, protowire.Fixed64Type)
	msg = protowire.AppendFixed64(msg, uint64(ev.Stamp))
	return protowire.AppendBytes(b, msg)
}

// UnmarshalEvent 解析一条不带长度前缀的消息
func UnmarshalEvent(msg []byte, ev *Event) error {
	*ev = Event{}
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return errs.Decode.Wrap(protowire.ParseError(n))
		}
		msg = msg[n:]
		switch {
		case num == fieldStamp && typ == protowire.Fixed64Type:
			v, m := protowire.ConsumeFixed64(msg)
			if m < 0 {
				return errs.Decode.Wrap(protowire.ParseError(m))
			}
			ev.Stamp = int64(v)
			msg = msg[m:]
		case num >= fieldSeq && num <= fieldArg && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(msg)
			if m < 0 {
				return errs.Decode.Wrap(protowire.ParseError(m))
			}
			switch num {
			case fieldSeq:
				ev.Seq = v
			case fieldKind:
				ev.Kind = timer.Op(v)
			case fieldTimer:
				ev.Timer = int64(v)
			case fieldTick:
				ev.Tick = int64(v)
			case fieldSec:
				ev.Sec = int64(v)
			case fieldNsec:
				ev.Nsec = int64(v)
			case fieldArg:
				ev.Arg = protowire.DecodeZigZag(v)
			}
			msg = msg[m:]
		default:
			// 未知字段跳过, 便于以后扩展
			m := protowire.ConsumeFieldValue(num, typ, msg)
			if m < 0 {
				return errs.Decode.Wrap(protowire.ParseError(m))
			}
			msg = msg[m:]
		}
	}
	if !ev.Kind.Valid() {
		return errs.Decode.Printf("kind=%d", uint8(ev.Kind))
	}
	return nil
}

// FileSink 把事件写入二进制文件
type FileSink struct {
	f   *os.File
	w   *bufio.Writer
	buf []byte
}

func NewFileSink(path string, session string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := &FileSink{f: f, w: bufio.NewWriterSize(f, 64<<10), buf: make([]byte, 0, 128)}
	header := append([]byte{}, magic...)
	header = protowire.AppendString(header, session)
	if _, err = s.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *FileSink) Write(ev *Event) error {
	s.buf = AppendEvent(s.buf[:0], ev)
	_, err := s.w.Write(s.buf)
	return err
}

func (s *FileSink) Flush() error {
	return s.w.Flush()
}

func (s *FileSink) Close() error {
	err := s.w.Flush()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Decode 读取 FileSink 写出的数据, 对每个事件调用 fn, fn 返回错误时停止.
// 返回会话 id.
func Decode(r io.Reader, fn func(ev *Event) error) (string, error) {
	br := bufio.NewReader(r)
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil {
		return "", errs.Decode.Wrap(err)
	}
	if !bytes.Equal(head, magic) {
		return "", errs.Decode.Print("bad magic")
	}
	session, err := readMessage(br)
	if err != nil {
		return "", err
	}
	var ev Event
	for {
		msg, err := readMessage(br)
		if errors.Is(err, io.EOF) {
			return string(session), nil
		}
		if err != nil {
			return string(session), err
		}
		if err = UnmarshalEvent(msg, &ev); err != nil {
			return string(session), err
		}
		if err = fn(&ev); err != nil {
			return string(session), err
		}
	}
}

// readMessage 读取一条 length-delimited 记录, 干净的结尾返回 io.EOF
func readMessage(br *bufio.Reader) ([]byte, error) {
	size, err := binary.ReadUvarint(br)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errs.Decode.Wrap(err)
	}
	if size > maxMessageSize {
		return nil, errs.Decode.Printf("message size %d", size)
	}
	msg := make([]byte, size)
	if _, err = io.ReadFull(br, msg); err != nil {
		return nil, errs.Decode.Wrap(err)
	}
	return msg, nil
}
