package util

import "math"

func AddInt64(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		// 溢出
		return math.MaxInt64, false
	} else if b < 0 && a < math.MinInt64-b {
		// 溢出
		return math.MinInt64, false
	}
	// 未发生溢出
	return a + b, true
}

// MulInt64 饱和乘法, 溢出时返回同号极值
func MulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		if (a < 0) != (b < 0) {
			return math.MinInt64, false
		}
		return math.MaxInt64, false
	}
	return c, true
}

// ClampInt32 截断到int32范围
func ClampInt32(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}
