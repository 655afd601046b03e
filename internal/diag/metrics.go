package diag

// 最小指标钩子（默认 no-op），名称约定：
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - op_duration_ms{comp,stage}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {}
