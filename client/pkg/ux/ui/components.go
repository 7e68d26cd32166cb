// Package ui 提供基础 UI 组件库
package ui

import (
	"fmt"
	"sort"

	"github.com/pterm/pterm"
)

// Spinner 等待动画句柄
type Spinner struct {
	printer *pterm.SpinnerPrinter
}

// StartSpinner 启动等待动画(等待回执等长耗时操作用)
//
// 非TTY环境下pterm自动退化为普通文本输出
func StartSpinner(text string) (*Spinner, error) {
	printer, err := pterm.DefaultSpinner.Start(text)
	if err != nil {
		return nil, fmt.Errorf("start spinner: %w", err)
	}
	return &Spinner{printer: printer}, nil
}

// UpdateText 更新动画文案
func (s *Spinner) UpdateText(text string) {
	s.printer.UpdateText(text)
}

// Success 以成功状态结束动画
func (s *Spinner) Success(text string) {
	s.printer.Success(text)
}

// Fail 以失败状态结束动画
func (s *Spinner) Fail(text string) {
	s.printer.Fail(text)
}

// ShowSection 显示小节标题
func ShowSection(title string) {
	pterm.DefaultSection.Println(title)
}

// ShowKeyValuePairs 显示键值对
func ShowKeyValuePairs(title string, pairs map[string]string) error {
	if title != "" {
		pterm.DefaultSection.Println(title)
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := make([][]string, 0, len(pairs))
	for _, k := range keys {
		data = append(data, []string{k, pairs[k]})
	}

	if err := pterm.DefaultTable.WithData(data).Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}
