package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// envPrefix: 环境变量前缀。
const envPrefix = "KEYPEST_"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info"},
		Components: Components{
			Reader:    "fs",
			Scanner:   "block",
			Validator: "interval",
			Parser:    "kps",
			Emitter:   "pst",
			Writer:    "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if len(over.Inputs) > 0 {
		out.Inputs = cloneStrings(over.Inputs)
	}
	// false 具有语义，nil 才视为未覆盖
	if over.KeepGoing != nil {
		v := *over.KeepGoing
		out.KeepGoing = &v
	}
	if strings.TrimSpace(over.Logging.Level) != "" {
		out.Logging.Level = strings.TrimSpace(over.Logging.Level)
	}
	mergeName(&out.CommentPrefix, over.CommentPrefix)

	// 组件名（空不覆盖）
	mergeName(&out.Components.Reader, over.Components.Reader)
	mergeName(&out.Components.Scanner, over.Components.Scanner)
	mergeName(&out.Components.Validator, over.Components.Validator)
	mergeName(&out.Components.Parser, over.Components.Parser)
	mergeName(&out.Components.Emitter, over.Components.Emitter)
	mergeName(&out.Components.Writer, over.Components.Writer)

	// Options（完整替换对应键）
	mergeRaw(&out.Options.Reader, over.Options.Reader)
	mergeRaw(&out.Options.Scanner, over.Options.Scanner)
	mergeRaw(&out.Options.Validator, over.Options.Validator)
	mergeRaw(&out.Options.Parser, over.Options.Parser)
	mergeRaw(&out.Options.Emitter, over.Options.Emitter)
	mergeRaw(&out.Options.Writer, over.Options.Writer)
	return out
}

func mergeName(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func mergeRaw(dst *json.RawMessage, v json.RawMessage) {
	if len(v) > 0 {
		*dst = cloneRaw(v)
	}
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 KEYPEST_；集合之外的键忽略。
// 支持：INPUTS, KEEP_GOING, LOG_LEVEL, COMMENT_PREFIX, COMPONENTS_<STAGE>, OPTIONS_<STAGE>_JSON
// （STAGE 为 READER/SCANNER/VALIDATOR/PARSER/EMITTER/WRITER）。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(envPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], envPrefix)
		val := kv[eq+1:]
		switch key {
		case "INPUTS":
			if val != "" {
				over.Inputs = splitComma(val)
			}
		case "KEEP_GOING":
			b, err := strconv.ParseBool(strings.TrimSpace(val))
			if err != nil {
				return Config{}, fmt.Errorf("env %sKEEP_GOING: %w", envPrefix, err)
			}
			over.KeepGoing = &b
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "COMMENT_PREFIX":
			over.CommentPrefix = strings.TrimSpace(val)
		default:
			if stage, ok := strings.CutPrefix(key, "COMPONENTS_"); ok {
				if p := componentField(&over.Components, stage); p != nil {
					*p = strings.TrimSpace(val)
				}
				continue
			}
			if rest, ok := strings.CutPrefix(key, "OPTIONS_"); ok {
				stage, ok := strings.CutSuffix(rest, "_JSON")
				if !ok {
					continue
				}
				p := optionField(&over.Options, stage)
				// 空值视为未设置，避免清空 config.json 中的选项
				if p == nil || strings.TrimSpace(val) == "" {
					continue
				}
				if !json.Valid([]byte(val)) {
					return Config{}, fmt.Errorf("env %s: invalid JSON", kv[:eq])
				}
				*p = json.RawMessage(val)
			}
		}
	}
	return over, nil
}

func componentField(c *Components, stage string) *string {
	switch stage {
	case "READER":
		return &c.Reader
	case "SCANNER":
		return &c.Scanner
	case "VALIDATOR":
		return &c.Validator
	case "PARSER":
		return &c.Parser
	case "EMITTER":
		return &c.Emitter
	case "WRITER":
		return &c.Writer
	}
	return nil
}

func optionField(o *Options, stage string) *json.RawMessage {
	switch stage {
	case "READER":
		return &o.Reader
	case "SCANNER":
		return &o.Scanner
	case "VALIDATOR":
		return &o.Validator
	case "PARSER":
		return &o.Parser
	case "EMITTER":
		return &o.Emitter
	case "WRITER":
		return &o.Writer
	}
	return nil
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
