package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/five82/tminus/internal/logging"
)

// Read returns at most maxLines from the end of the file at path; maxLines
// <= 0 returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded log line.
type Entry struct {
	Time    time.Time
	Level   string // upper case
	Card    string
	Message string
	Fields  map[string]string
	Raw     string
}

// Parse decodes a zap JSON line. Lines that are not JSON come back with only
// Raw and Message set.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Message: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return entry
	}

	entry.Message = stringField(raw, logging.MessageKey)
	entry.Level = strings.ToUpper(stringField(raw, logging.LevelKey))
	entry.Card = stringField(raw, "card")
	if ts := stringField(raw, logging.TimeKey); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	}
	for _, key := range []string{logging.MessageKey, logging.LevelKey, logging.TimeKey, logging.CallerKey, logging.NameKey, "card"} {
		delete(raw, key)
	}
	if len(raw) > 0 {
		entry.Fields = make(map[string]string, len(raw))
		for k, v := range raw {
			entry.Fields[k] = fmt.Sprint(v)
		}
	}
	return entry
}

// Format renders e as
//
//	2025-10-08 21:01:05 WARN [trip] – target date not parseable value=soon
//
// with fields sorted by key.
func (e Entry) Format() string {
	if e.Level == "" && e.Time.IsZero() {
		return e.Raw
	}
	parts := make([]string, 0, 4)
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.In(time.Local).Format("2006-01-02 15:04:05"))
	}
	level := e.Level
	if level == "" {
		level = "INFO"
	}
	parts = append(parts, level)
	if e.Card != "" {
		parts = append(parts, "["+e.Card+"]")
	}
	header := strings.Join(parts, " ")
	if msg := strings.TrimSpace(e.Message); msg != "" {
		header += " – " + msg
	}
	if len(e.Fields) == 0 {
		return header
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(header)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(e.Fields[k])
	}
	return b.String()
}

// Tail reads the last maxLines of path and decodes them.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}
