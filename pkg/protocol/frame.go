package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxPacketSize 单个数据包的最大长度
const MaxPacketSize = 4096

var (
	ErrPacketTooLarge = errors.New("数据包过大")
	ErrEmptyPacket    = errors.New("空数据包")
)

// WriteFrame 以 4 字节大端长度前缀写出一个数据包，前缀和数据一次写入
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxPacketSize {
		return fmt.Errorf("%w (%d bytes)", ErrPacketTooLarge, len(data))
	}
	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	_, err := w.Write(frame)
	return err
}

// ReadFrame 读取一个带长度前缀的数据包。
// 长度为 0 时返回 ErrEmptyPacket，调用方可以继续读取。
func ReadFrame(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > MaxPacketSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrPacketTooLarge, length)
	}
	if length == 0 {
		return nil, ErrEmptyPacket
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
