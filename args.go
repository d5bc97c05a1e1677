package main

import (
	"fmt"
	"strconv"
	"strings"
)

const flagPrefix = "--"

// Args maps flag names to either a string value or the boolean true.
type Args map[string]interface{}

func isFlag(token string) bool {
	return strings.HasPrefix(token, flagPrefix)
}

// ParseArgs turns tokens like `--port 8080 --debug` into
// {"port": "8080", "debug": true}. A flag with no following value, or
// followed by another flag, is set to true. Stray positional tokens are
// ignored.
func ParseArgs(tokens []string) Args {
	result := Args{}
	for i := 0; i < len(tokens); i++ {
		if !isFlag(tokens[i]) {
			continue
		}
		key := strings.TrimPrefix(tokens[i], flagPrefix)
		if i+1 < len(tokens) && !isFlag(tokens[i+1]) {
			result[key] = tokens[i+1]
			i++
			continue
		}
		result[key] = true
	}
	return result
}

func (a Args) String(key, def string) string {
	v, ok := a[key].(string)
	if !ok {
		return def
	}
	return v
}

func (a Args) Int(key string, def int) (int, error) {
	raw, ok := a[key]
	if !ok {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return def, fmt.Errorf("flag --%s requires a value", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("flag --%s: %w", key, err)
	}
	return n, nil
}

// Bool reports whether a flag was given bare or with a truthy value.
func (a Args) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}
