// Package output provides output formatting functionality for client commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
)

// Format 输出格式
type Format string

const (
	// FormatJSON JSON格式（默认）
	FormatJSON Format = "json"
	// FormatPretty 美化JSON格式
	FormatPretty Format = "pretty"
	// FormatTable 表格格式
	FormatTable Format = "table"
	// FormatText 纯文本格式
	FormatText Format = "text"
)

// Formatter 输出格式化器
//
// 数据输出走writer(stdout),日志类输出走logWriter(stderr),避免污染JSON
type Formatter struct {
	format    Format
	writer    io.Writer
	logWriter io.Writer
	silent    bool
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}

	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr,
	}
}

// SetLogWriter 设置日志输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 设置静默模式
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 打印输出
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}

	switch f.format {
	case FormatJSON:
		return f.printJSON(data, false)
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

// printJSON 打印JSON格式
func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintln(f.writer, string(output)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable 打印表格格式
func (f *Formatter) printTable(data interface{}) error {
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	defer func() {
		_ = tw.Flush() // 忽略 flush 错误，因为可能已经写入部分数据
	}()

	switch v := data.(type) {
	case map[string]interface{}:
		return printMapTable(tw, v)
	case []map[string]interface{}:
		for i, row := range v {
			if i > 0 {
				fmt.Fprintln(tw)
			}
			if err := printMapTable(tw, row); err != nil {
				return err
			}
		}
		return nil
	default:
		// 非表格数据退回JSON
		return f.printJSON(data, true)
	}
}

// printMapTable 按键排序打印键值对
func printMapTable(tw *tabwriter.Writer, m map[string]interface{}) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(tw, "%s\t%v\n", k, m[k]); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	}
	return nil
}

// printText 打印纯文本格式
func (f *Formatter) printText(data interface{}) error {
	if _, err := fmt.Fprintf(f.writer, "%v\n", data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintInfo 打印提示信息(stderr)
func (f *Formatter) PrintInfo(msg string) {
	if f.silent {
		return
	}
	fmt.Fprintf(f.logWriter, "ℹ %s\n", msg)
}

// PrintSuccess 打印成功信息(stderr)
func (f *Formatter) PrintSuccess(msg string) {
	if f.silent {
		return
	}
	fmt.Fprintf(f.logWriter, "✔ %s\n", msg)
}

// PrintWarning 打印警告信息(stderr)
func (f *Formatter) PrintWarning(msg string) {
	if f.silent {
		return
	}
	fmt.Fprintf(f.logWriter, "⚠ %s\n", msg)
}

// PrintError 打印错误信息(stderr,不受silent影响)
func (f *Formatter) PrintError(err error) {
	fmt.Fprintf(f.logWriter, "✘ %v\n", err)
}
