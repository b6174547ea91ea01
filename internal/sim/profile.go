package sim

// TargetSpeed maps segment progress to a speed on the trapezoidal profile:
// a linear ramp up to AccelEnd, cruise at MaxSpeedKmh, and a linear ramp down after DecelStart.
func (p Params) TargetSpeed(progress float64, atStop bool) float64 {
	switch {
	case atStop:
		return 0
	case progress < p.AccelEnd:
		return p.MaxSpeedKmh * (progress / p.AccelEnd)
	case progress > p.DecelStart:
		return p.MaxSpeedKmh * (1 - progress) / (1 - p.DecelStart)
	default:
		return p.MaxSpeedKmh
	}
}

// Braking reports whether a vehicle at this progress is in the deceleration zone.
func (p Params) Braking(progress float64, atStop bool) bool {
	return progress > p.DecelStart && !atStop
}

// ramp moves speed toward target by at most one tick's worth of acceleration
// (or deceleration when slowing down), snapping to target when within reach.
func (p Params) ramp(speed, target, dt float64) float64 {
	diff := target - speed
	rate := p.AccelRate
	if diff < 0 {
		rate = p.DecelRate
		diff = -diff
	}
	step := rate * msToKmh * dt
	if diff <= step {
		return target
	}
	if target > speed {
		return speed + step
	}
	return speed - step
}
