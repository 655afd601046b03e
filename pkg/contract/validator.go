package contract

import "sort"

// 校验库函数（纯函数，无 I/O）：
// - CheckOrdered:  每个区间 End 严格大于 Start
// - CheckDisjoint: 区间两两不相交（按 Start 排序后线性扫描，O(n log n)）

// CheckOrdered 返回首个 End <= Start 的区间对应的 *ReversedBlockError。
func CheckOrdered(spans []BlockSpan) error {
	for _, s := range spans {
		if s.End <= s.Start {
			return &ReversedBlockError{Name: s.Name}
		}
	}
	return nil
}

// CheckDisjoint 对 spans 原地按 Start 升序排序，并校验相邻区间不相交。
// 若后一块的 Start <= 前一块的 End，则二者嵌套或交叠：Inner 为后者，Outer 为前者。
func CheckDisjoint(spans []BlockSpan) error {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	for i := 1; i < len(spans); i++ {
		prev, next := spans[i-1], spans[i]
		if next.Start <= prev.End {
			return &IllegalNestingError{Inner: next.Name, Outer: prev.Name}
		}
	}
	return nil
}
