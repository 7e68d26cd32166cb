package token

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteReport 按教程格式输出交互结果
//
// 输出三段: 转账前余额、回执、转账后余额
func WriteReport(w io.Writer, res *InteractResult) error {
	if res == nil {
		return fmt.Errorf("interact result is nil")
	}

	if _, err := fmt.Fprintf(w, "Balance before: %s\n", res.BalanceBefore); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	receiptJSON, err := json.MarshalIndent(res.Receipt, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(receiptJSON)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if _, err := fmt.Fprintf(w, "Balance after: %s\n", res.BalanceAfter); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
