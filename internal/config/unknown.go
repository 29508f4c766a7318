package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// taskKeyAliases are accepted task keys that have no struct field of their own.
var taskKeyAliases = []string{"args+", "serial", "linux", "windows", "mac", "macos"}

// detectUnknownFields compares a decoded document with the known fields.
func detectUnknownFields(doc map[string]any) []string {
	var warnings []string

	knownTopLevel := getJSONFields(reflect.TypeOf(File{}))
	for _, key := range sortedKeys(doc) {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}

	if tasks, ok := doc["tasks"].(map[string]any); ok {
		warnings = append(warnings, checkTasksUnknownFields(tasks)...)
	}

	return warnings
}

func checkTasksUnknownFields(tasks map[string]any) []string {
	var warnings []string

	known := getJSONFields(reflect.TypeOf(TaskDefinition{}))
	for _, alias := range taskKeyAliases {
		known[alias] = true
	}

	var check func(name string, body map[string]any)
	check = func(name string, body map[string]any) {
		for _, key := range sortedKeys(body) {
			if !known[key] {
				warnings = append(warnings, fmt.Sprintf("unknown field %q in task %q (ignored)", key, name))
				continue
			}
			if _, isOS := ParseOS(key); isOS {
				if sub, ok := body[key].(map[string]any); ok {
					check(name+"."+key, sub)
				}
			}
		}
	}

	for _, name := range sortedKeys(tasks) {
		if body, ok := tasks[name].(map[string]any); ok {
			check(name, body)
		}
	}

	return warnings
}

// getJSONFields returns a map of known JSON field names for a struct type.
func getJSONFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		// Extract field name from tag (before comma)
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
