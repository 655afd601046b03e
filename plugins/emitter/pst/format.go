package pst

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

// Fortran 风格指数（1.0d-3）按 e 处理。
var expReplacer = strings.NewReplacer("d", "e", "D", "e")

// formatField 按字段声明类型格式化：
// - Int:  %8d
// - Real: %16.8e
// - String: 原样
func formatField(f schema.Field, block, v string) (string, error) {
	switch f.Type {
	case schema.Int:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return "", mismatch(f, block, v)
		}
		return fmt.Sprintf("%8d", n), nil
	case schema.Real:
		x, err := parseReal(v)
		if err != nil {
			return "", mismatch(f, block, v)
		}
		return fmt.Sprintf("%16.8e", x), nil
	default:
		return v, nil
	}
}

func parseReal(v string) (float64, error) {
	x, err := strconv.ParseFloat(expReplacer.Replace(strings.TrimSpace(v)), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return 0, strconv.ErrSyntax
	}
	return x, nil
}

func mismatch(f schema.Field, block, v string) error {
	return &contract.TypeMismatchError{Field: f.Name, Block: block, Want: f.Type.String(), Value: v}
}
