package pointer

func ToFloat64(p *float64) float64 {
	if p == nil {
		return 0
	}

	return *p
}
