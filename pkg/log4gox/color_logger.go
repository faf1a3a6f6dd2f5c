package log4gox

import (
	"fmt"
	"io"
	"os"

	l4g "github.com/alecthomas/log4go"
)

// 终端前景色：30 黑 31 红 32 绿 33 黄 34 蓝 35 紫 36 青 37 白
var (
	levelColor   = [...]int{37, 37, 36, 37, 32, 33, 31, 35}
	levelStrings = [...]string{"FNST", "FINE", "DEBG", "TRAC", "INFO", "WARN", "EROR", "CRIT"}
)

const colorSymbol = 0x1B

// ConsoleLogWriter 带颜色的控制台输出
type ConsoleLogWriter struct {
	records chan *l4g.LogRecord
	done    chan struct{}
	color   bool
}

// NewColorConsoleLogWriter 输出到标准输出
func NewColorConsoleLogWriter(color bool) *ConsoleLogWriter {
	return NewConsoleLogWriterTo(os.Stdout, color)
}

// NewConsoleLogWriterTo 输出到指定 writer
func NewConsoleLogWriterTo(out io.Writer, color bool) *ConsoleLogWriter {
	w := &ConsoleLogWriter{
		records: make(chan *l4g.LogRecord, l4g.LogBufferLength),
		done:    make(chan struct{}),
		color:   color,
	}
	go w.run(out)
	return w
}

func (w *ConsoleLogWriter) run(out io.Writer) {
	defer close(w.done)

	var timestr string
	var timestrAt int64

	for rec := range w.records {
		if at := rec.Created.Unix(); at != timestrAt {
			timestr, timestrAt = rec.Created.Format("01/02/06 15:04:05"), at
		}
		lvl := int(rec.Level)
		if lvl < 0 || lvl >= len(levelStrings) {
			lvl = len(levelStrings) - 1
		}
		if w.color {
			fmt.Fprintf(out, "%c[%dm[%s] [%s] (%s) %s%c[0m\n",
				colorSymbol, levelColor[lvl], timestr, levelStrings[lvl], rec.Source, rec.Message, colorSymbol)
		} else {
			fmt.Fprintf(out, "[%s] [%s] (%s) %s\n", timestr, levelStrings[lvl], rec.Source, rec.Message)
		}
	}
}

// LogWrite 缓冲满时阻塞
func (w *ConsoleLogWriter) LogWrite(rec *l4g.LogRecord) {
	w.records <- rec
}

// Close 停止输出并等待缓冲写完
func (w *ConsoleLogWriter) Close() {
	close(w.records)
	<-w.done
}
