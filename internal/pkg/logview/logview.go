// reading and filtering the application log for the dashboard
package logview

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

var Levels = []string{"ALL", "INFO", "ERROR", "DEBUG", "WARNING"}

type Line struct {
	Number int    `json:"number"`
	Level  string `json:"level"`
	Text   string `json:"text"`
}

// Filter returns the lines of r whose level matches level; "ALL" or "" keeps everything.
func Filter(r io.Reader, level string) ([]Line, error) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if level == "" {
		level = "ALL"
	}
	if !validLevel(level) {
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	var out []Line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		lineLevel := DetectLevel(text)
		if level != "ALL" && lineLevel != level {
			continue
		}
		out = append(out, Line{Number: n, Level: lineLevel, Text: text})
	}
	return out, scanner.Err()
}

func FilterFile(path, level string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Filter(f, level)
}

// DetectLevel reads the level of a logrus JSON line, falling back to the first level name found in plain text.
func DetectLevel(text string) string {
	var entry struct {
		Level string `json:"level"`
	}
	if strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &entry) == nil && entry.Level != "" {
		return normalize(entry.Level)
	}

	upper := strings.ToUpper(text)
	for _, l := range []string{"ERROR", "WARNING", "WARN", "INFO", "DEBUG", "FATAL", "PANIC"} {
		if strings.Contains(upper, l) {
			return normalize(l)
		}
	}
	return ""
}

func normalize(level string) string {
	switch strings.ToUpper(level) {
	case "WARN", "WARNING":
		return "WARNING"
	case "FATAL", "PANIC":
		return "ERROR"
	default:
		return strings.ToUpper(level)
	}
}

func validLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}
