package util

import (
    "strconv"
    "unicode/utf8"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// TruncateBytes cuts s to at most n bytes, backing up so a multi-byte
// UTF-8 rune is never split.
func TruncateBytes(s string, n int) string {
    if len(s) <= n {
        return s
    }
    for n > 0 && !utf8.RuneStart(s[n]) {
        n--
    }
    return s[:n]
}