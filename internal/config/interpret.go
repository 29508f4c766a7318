package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
)

// interpret converts a decoded document into a File.
func interpret(path string, doc map[string]any) (*File, error) {
	f := &File{Path: path, Tasks: make(map[string]*Entry)}

	version, err := parseVersion(doc["version"])
	if err != nil {
		return nil, err
	}
	f.Version = version

	if f.Wd, err = optString(doc, "wd", "wd"); err != nil {
		return nil, err
	}
	if f.Quote, err = optQuote(doc, "quote", "quote"); err != nil {
		return nil, err
	}
	if f.Env, err = envMap(doc, "env", "env"); err != nil {
		return nil, err
	}
	if f.EnvFile, err = optString(doc, "env_file", "env_file"); err != nil {
		return nil, err
	}

	rawTasks, ok := doc["tasks"]
	if !ok || rawTasks == nil {
		return f, nil
	}
	tasks, ok := rawTasks.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: "tasks", Message: "must be a mapping"}
	}

	// Sorted so that duplicate-variant errors are deterministic.
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, key := range names {
		body, ok := tasks[key].(map[string]any)
		if !ok {
			return nil, &ValidationError{Field: "tasks." + key, Message: "must be a mapping"}
		}
		if base, os, ok := splitVariant(key); ok {
			def, err := interpretTask(variantName(base, os), body, false)
			if err != nil {
				return nil, err
			}
			if err := f.addVariant(base, os, def); err != nil {
				return nil, err
			}
			continue
		}
		def, err := interpretTask(key, body, true)
		if err != nil {
			return nil, err
		}
		entry := f.entry(key)
		entry.Generic = def
		for _, osKey := range []string{"linux", "windows", "mac", "macos"} {
			sub, ok := body[osKey]
			if !ok {
				continue
			}
			os, _ := ParseOS(osKey)
			subBody, ok := sub.(map[string]any)
			if !ok {
				return nil, &ValidationError{Field: fmt.Sprintf("tasks.%s.%s", key, osKey), Message: "must be a mapping"}
			}
			vdef, err := interpretTask(variantName(key, os), subBody, false)
			if err != nil {
				return nil, err
			}
			if err := f.addVariant(key, os, vdef); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func variantName(name string, os OS) string {
	return name + "." + string(os)
}

func (f *File) entry(name string) *Entry {
	e, ok := f.Tasks[name]
	if !ok {
		e = &Entry{Name: name, Variants: make(map[OS]*TaskDefinition)}
		f.Tasks[name] = e
	}
	return e
}

func (f *File) addVariant(name string, os OS, def *TaskDefinition) error {
	e := f.entry(name)
	if e.Variants[os] != nil {
		return &ValidationError{Field: "tasks." + variantName(name, os), Message: "is defined more than once"}
	}
	e.Variants[os] = def
	return nil
}

func interpretTask(name string, body map[string]any, allowVariants bool) (*TaskDefinition, error) {
	field := "tasks." + name
	def := &TaskDefinition{Name: name}
	var err error

	if !allowVariants {
		for _, osKey := range []string{"linux", "windows", "mac", "macos"} {
			if _, ok := body[osKey]; ok {
				return nil, &ValidationError{Field: field + "." + osKey, Message: "OS variants cannot be nested"}
			}
		}
	}

	if def.Help, err = optString(body, "help", field); err != nil {
		return nil, err
	}
	if def.Wd, err = optString(body, "wd", field); err != nil {
		return nil, err
	}
	if def.Quote, err = optQuote(body, "quote", field); err != nil {
		return nil, err
	}
	if def.Script, err = optString(body, "script", field); err != nil {
		return nil, err
	}
	if def.ScriptRunner, err = optString(body, "script_runner", field); err != nil {
		return nil, err
	}
	if def.ScriptExt, err = optString(body, "script_ext", field); err != nil {
		return nil, err
	}
	if def.Program, err = optString(body, "program", field); err != nil {
		return nil, err
	}
	if def.Args, err = argList(body, "args", field); err != nil {
		return nil, err
	}

	_, hasExtend := body["args_extend"]
	_, hasPlus := body["args+"]
	if hasExtend && hasPlus {
		return nil, &ValidationError{Field: field, Message: "args_extend and args+ cannot be used together"}
	}
	extendKey := "args_extend"
	if hasPlus {
		extendKey = "args+"
	}
	if def.ArgsExtend, err = argList(body, extendKey, field); err != nil {
		return nil, err
	}

	if def.Cmds, err = commands(body, field); err != nil {
		return nil, err
	}
	if def.Env, err = envMap(body, "env", field); err != nil {
		return nil, err
	}
	if def.EnvFile, err = optString(body, "env_file", field); err != nil {
		return nil, err
	}
	if def.Bases, err = stringList(body, "bases", field); err != nil {
		return nil, err
	}
	if raw, ok := body["private"]; ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, &ValidationError{Field: field + ".private", Message: "must be a boolean"}
		}
		def.Private = b
	}
	return def, nil
}

func parseVersion(raw any) (string, error) {
	var s string
	switch v := raw.(type) {
	case nil:
		return DefaultVersion, nil
	case string:
		s = strings.TrimPrefix(v, "v")
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint64:
		s = strconv.FormatUint(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "", &ValidationError{Field: "version", Message: fmt.Sprintf("unsupported value %v", raw)}
	}
	if s != VersionLegacy && s != VersionCurrent {
		return "", &ValidationError{Field: "version", Message: fmt.Sprintf("unsupported version %q (supported: 0, 1)", s)}
	}
	return s, nil
}

func optString(m map[string]any, key, field string) (*string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, &ValidationError{Field: fieldPath(field, key), Message: "must be a string"}
	}
	return &s, nil
}

func optQuote(m map[string]any, key, field string) (*QuoteMode, error) {
	s, err := optString(m, key, field)
	if err != nil || s == nil {
		return nil, err
	}
	q := QuoteMode(*s)
	return &q, nil
}

// argList reads a list of strings, or a single string split like a shell
// command line.
func argList(m map[string]any, key, field string) ([]string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		words, err := shlex.Split(s, true)
		if err != nil {
			return nil, &ValidationError{Field: fieldPath(field, key), Message: err.Error()}
		}
		if words == nil {
			words = []string{}
		}
		return words, nil
	}
	return stringList(m, key, field)
}

func stringList(m map[string]any, key, field string) ([]string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Field: fieldPath(field, key), Message: "must be a list of strings"}
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d]", fieldPath(field, key), i), Message: "must be a string"}
		}
		out = append(out, s)
	}
	return out, nil
}

func commands(m map[string]any, field string) ([]Command, error) {
	rawCmds, hasCmds := m["cmds"]
	rawSerial, hasSerial := m["serial"]
	if hasCmds && hasSerial {
		return nil, &ValidationError{Field: field, Message: "cmds and serial cannot be used together"}
	}
	if hasSerial && rawSerial != nil {
		names, err := stringList(m, "serial", field)
		if err != nil {
			return nil, err
		}
		cmds := make([]Command, 0, len(names))
		for _, name := range names {
			cmds = append(cmds, Command{Task: name})
		}
		return cmds, nil
	}
	if !hasCmds || rawCmds == nil {
		return nil, nil
	}
	items, ok := rawCmds.([]any)
	if !ok {
		return nil, &ValidationError{Field: field + ".cmds", Message: "must be a list"}
	}
	cmds := make([]Command, 0, len(items))
	for i, item := range items {
		itemField := fmt.Sprintf("%s.cmds[%d]", field, i)
		switch v := item.(type) {
		case string:
			cmds = append(cmds, Command{Line: v})
		case map[string]any:
			name, ok := v["task"].(string)
			if !ok || len(v) != 1 {
				return nil, &ValidationError{Field: itemField, Message: "must be a string or a mapping with a single task key"}
			}
			cmds = append(cmds, Command{Task: name})
		default:
			return nil, &ValidationError{Field: itemField, Message: "must be a string or a mapping with a single task key"}
		}
	}
	return cmds, nil
}

// envMap reads an environment mapping, converting scalar values to strings.
func envMap(m map[string]any, key, field string) (map[string]string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, nil
	}
	vars, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Field: fieldPath(field, key), Message: "must be a mapping"}
	}
	env := make(map[string]string, len(vars))
	for k, v := range vars {
		switch v := v.(type) {
		case string:
			env[k] = v
		case bool, int, int64, uint64:
			env[k] = fmt.Sprint(v)
		case float64:
			env[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			env[k] = ""
		default:
			return nil, &ValidationError{Field: fieldPath(field, key) + "." + k, Message: "must be a string, number or boolean"}
		}
	}
	return env, nil
}

func fieldPath(field, key string) string {
	if field == key {
		return key
	}
	return field + "." + key
}
