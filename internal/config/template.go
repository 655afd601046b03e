package config

import (
	"encoding/json"

	"keypest/pkg/contract"
)

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），Writer 输出到 ./out 目录；
// - 组件名采用仓库内置实现；
// - 选项包含全部键，给出安全中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	keep := false
	cfg := Config{
		Inputs:     []string{"-"},
		KeepGoing:     &keep,
		CommentPrefix: contract.DefaultCommentPrefix,
		Logging:       Logging{Level: "info"},
		Components:    d.Components,
	}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "exclude_dir_names": [".git", "node_modules", "vendor"],
  "allow_exts": [".kps"]
}`)
	// scanner/parser 无阶段选项；注释符见顶层 comment_prefix
	cfg.Options.Scanner = json.RawMessage(`{}`)
	// interval 校验器无配置项，保持空对象
	cfg.Options.Validator = json.RawMessage(`{}`)
	cfg.Options.Parser = json.RawMessage(`{}`)
	cfg.Options.Emitter = json.RawMessage(`{
  "newline": "lf"
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "out",
  "ext": ".pst",
  "atomic": true,
  "flat": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}
