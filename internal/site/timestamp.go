package site

import (
	"fmt"
	"os"
	"time"
)

// FormatTimestamp renders t in loc with layout, followed by the literal zone
// label. The label is not derived from loc.
func FormatTimestamp(t time.Time, layout, label string, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	s := t.Format(layout)
	if label != "" {
		s += " " + label
	}
	return s
}

// StampBlock returns the fenced block appended to the index document.
func StampBlock(stamp string) string {
	return "\n```\n" + stamp + "\n```"
}

// AppendStamp appends the fenced timestamp block to the file at path.
func AppendStamp(path, stamp string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("open index for append: %w", err)
	}
	if _, err := f.WriteString(StampBlock(stamp)); err != nil {
		_ = f.Close()
		return fmt.Errorf("append timestamp: %w", err)
	}
	return f.Close()
}
