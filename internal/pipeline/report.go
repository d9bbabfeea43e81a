package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatBatchResult renders a batch summary as text, json or csv.
func FormatBatchResult(res *BatchResult, format string) (string, error) {
	if res == nil {
		return "", fmt.Errorf("no batch result")
	}
	switch format {
	case "json":
		bts, err := json.MarshalIndent(res, "", "  ")
		return string(bts) + "\n", err
	case "csv":
		return formatCSV(res)
	case "", "text":
		return formatText(res), nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or csv)", format)
	}
}

func formatCSV(res *BatchResult) (string, error) {
	var out strings.Builder
	w := csv.NewWriter(&out)
	if err := w.Write([]string{"input", "output", "status", "stage", "error", "duration_ms"}); err != nil {
		return "", err
	}
	for _, it := range res.Items {
		status := "ok"
		if !it.OK() {
			status = "failed"
		}
		row := []string{
			it.Input, it.Output, status, it.Stage, it.Error,
			strconv.FormatInt(it.Duration.Milliseconds(), 10),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return out.String(), w.Error()
}

func formatText(res *BatchResult) string {
	var out strings.Builder
	for _, it := range res.Items {
		if !it.OK() {
			fmt.Fprintf(&out, "FAILED %s [%s]: %s\n", it.Input, it.Stage, it.Error)
		}
	}
	fmt.Fprintf(&out, "Batch complete: %d succeeded, %d failed", res.Succeeded, res.Failed)
	if res.Canceled {
		fmt.Fprintf(&out, " (canceled after %d of %d)", res.Processed(), res.Total)
	}
	fmt.Fprintf(&out, " in %v\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(&out, "Output: %s\n", res.OutputDir)
	return out.String()
}
