package registry

import (
	"bytes"
	"encoding/json"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
	epst "keypest/plugins/emitter/pst"
	pkps "keypest/plugins/parser/kps"
	rfs "keypest/plugins/reader/filesystem"
	sblk "keypest/plugins/scanner/block"
	vint "keypest/plugins/validator/interval"
	wfs "keypest/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewScanner 工厂签名：comment 为全局注释符，与 Parser 共用。
type NewScanner func(raw json.RawMessage, comment string) (contract.Scanner, error)

// NewValidator 工厂签名：需要 Schema 解析块名。
type NewValidator func(raw json.RawMessage, reg *schema.Registry) (contract.Validator, error)

// NewParser 工厂签名：需要 Schema 解析字段/列；comment 同 NewScanner。
type NewParser func(raw json.RawMessage, reg *schema.Registry, comment string) (contract.Parser, error)

// NewEmitter 工厂签名：需要 Schema 取得字段类型。
type NewEmitter func(raw json.RawMessage, reg *schema.Registry) (contract.Emitter, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Scanner 工厂注册表。
var Scanner = map[string]NewScanner{
	// block: begin/end 行扫描（无选项）
	"block": func(raw json.RawMessage, comment string) (contract.Scanner, error) {
		var opts struct{}
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sblk.New(comment), nil
	},
}

// Validator 工厂注册表。
var Validator = map[string]NewValidator{
	// interval: 重复/配对/反序/区间不相交校验（无选项）
	"interval": func(raw json.RawMessage, reg *schema.Registry) (contract.Validator, error) {
		var opts struct{}
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return vint.New(reg), nil
	},
}

// Parser 工厂注册表。
var Parser = map[string]NewParser{
	// kps: 关键字块/表块内容解析（无选项）
	"kps": func(raw json.RawMessage, reg *schema.Registry, comment string) (contract.Parser, error) {
		var opts struct{}
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return pkps.New(reg, comment), nil
	},
}

// Emitter 工厂注册表。
var Emitter = map[string]NewEmitter{
	// pst: PEST 控制文件（固定节顺序）
	"pst": func(raw json.RawMessage, reg *schema.Registry) (contract.Emitter, error) {
		var opts epst.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return epst.New(reg, &opts)
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}
