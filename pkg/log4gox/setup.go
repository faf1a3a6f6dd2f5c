package log4gox

import (
	"fmt"
	"strings"

	l4g "github.com/alecthomas/log4go"
)

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (l4g.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "finest":
		return l4g.FINEST, nil
	case "fine":
		return l4g.FINE, nil
	case "debug":
		return l4g.DEBUG, nil
	case "trace":
		return l4g.TRACE, nil
	case "", "info":
		return l4g.INFO, nil
	case "warn", "warning":
		return l4g.WARNING, nil
	case "error":
		return l4g.ERROR, nil
	case "critical":
		return l4g.CRITICAL, nil
	}
	return l4g.INFO, fmt.Errorf("未知日志级别: %q", name)
}

// Setup 替换全局 logger 为带颜色的控制台输出
func Setup(level string, color bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l4g.Global.Close()
	l4g.Global = make(l4g.Logger)
	l4g.Global.AddFilter("stdout", lvl, NewColorConsoleLogWriter(color))
	return nil
}
