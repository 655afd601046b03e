package config

import (
	"errors"
	"fmt"
	"strings"

	"keypest/internal/pipeline"
	"keypest/pkg/contract"
	"keypest/pkg/registry"
	"keypest/pkg/schema"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("config: inputs empty")
	}
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		if strings.TrimSpace(r) == "" {
			return errors.New("config: input path cannot be empty")
		}
		if strings.TrimSpace(r) == "-" {
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return errors.New("config: '-' cannot be mixed with other roots")
	}
	if p := strings.TrimSpace(cfg.CommentPrefix); strings.ContainsAny(p, "= \t") {
		return fmt.Errorf("config: comment_prefix %q must not contain '=' or whitespace", cfg.CommentPrefix)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", cfg.Logging.Level)
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	d := Defaults().Components
	if name := effName(cfg.Components.Reader, d.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Scanner, d.Scanner); registry.Scanner[name] == nil {
		return fmt.Errorf("config: scanner %q not registered", name)
	}
	if name := effName(cfg.Components.Validator, d.Validator); registry.Validator[name] == nil {
		return fmt.Errorf("config: validator %q not registered", name)
	}
	if name := effName(cfg.Components.Parser, d.Parser); registry.Parser[name] == nil {
		return fmt.Errorf("config: parser %q not registered", name)
	}
	if name := effName(cfg.Components.Emitter, d.Emitter); registry.Emitter[name] == nil {
		return fmt.Errorf("config: emitter %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, d.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered", name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
// 所有依赖 Schema 的组件共享同一个 PEST 注册表实例。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	d := Defaults().Components
	reg := schema.PEST()
	comment := contract.CommentPrefix(cfg.CommentPrefix)

	r, err := registry.Reader[effName(cfg.Components.Reader, d.Reader)](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("reader options: %w", err)
	}
	s, err := registry.Scanner[effName(cfg.Components.Scanner, d.Scanner)](cfg.Options.Scanner, comment)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("scanner options: %w", err)
	}
	v, err := registry.Validator[effName(cfg.Components.Validator, d.Validator)](cfg.Options.Validator, reg)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("validator options: %w", err)
	}
	p, err := registry.Parser[effName(cfg.Components.Parser, d.Parser)](cfg.Options.Parser, reg, comment)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("parser options: %w", err)
	}
	e, err := registry.Emitter[effName(cfg.Components.Emitter, d.Emitter)](cfg.Options.Emitter, reg)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("emitter options: %w", err)
	}
	w, err := registry.Writer[effName(cfg.Components.Writer, d.Writer)](cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer options: %w", err)
	}

	comp := pipeline.Components{
		Reader:    r,
		Scanner:   s,
		Validator: v,
		Parser:    p,
		Emitter:   e,
		Writer:    w,
	}
	set := pipeline.Settings{
		Inputs:    cloneStrings(cfg.Inputs),
		KeepGoing: cfg.KeepGoing != nil && *cfg.KeepGoing,
	}
	return comp, set, nil
}

// EmitterName 返回生效的写出器名（终端提示用）。
func EmitterName(cfg Config) string {
	return effName(cfg.Components.Emitter, Defaults().Components.Emitter)
}

func effName(got, def string) string {
	if got = strings.TrimSpace(got); got == "" {
		return def
	}
	return got
}
