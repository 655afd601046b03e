package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	Inputs []string `json:"inputs"`
	// KeepGoing: 某文档失败后继续转换其余文档。nil 表示未设置（默认 false）。
	KeepGoing *bool `json:"keep_going,omitempty"`
	// CommentPrefix: 注释符，Scanner 与 Parser 共用。空则为 "#"。
	CommentPrefix string  `json:"comment_prefix,omitempty"`
	Logging       Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader    string `json:"reader"`
	Scanner   string `json:"scanner"`
	Validator string `json:"validator"`
	Parser    string `json:"parser"`
	Emitter   string `json:"emitter"`
	Writer    string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader    json.RawMessage `json:"reader"`
	Scanner   json.RawMessage `json:"scanner"`
	Validator json.RawMessage `json:"validator"`
	Parser    json.RawMessage `json:"parser"`
	Emitter   json.RawMessage `json:"emitter"`
	Writer    json.RawMessage `json:"writer"`
}
