package alert

// ResolveInt returns the first present value in precedence order:
// explicit call argument, per-asset override, global default.
func ResolveInt(call *int, entity *int, def int) int {
	if call != nil {
		return *call
	}
	if entity != nil {
		return *entity
	}
	return def
}

// ResolveFloat is ResolveInt for float64 values.
func ResolveFloat(call *float64, entity *float64, def float64) float64 {
	if call != nil {
		return *call
	}
	if entity != nil {
		return *entity
	}
	return def
}
