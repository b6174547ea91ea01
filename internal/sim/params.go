package sim

// ETASentinel is reported when no arrival estimate is available, and caps every estimate.
const ETASentinel = 999

// kmh per m/s
const msToKmh = 3.6

// Params holds the tunable physics of the simulation. All speeds are km/h, rates m/s²,
// durations seconds and temperatures °C.
type Params struct {
	MaxSpeedKmh        float64 `yaml:"max_speed_kmh" json:"max_speed_kmh" validate:"gt=0"`
	OvershootKmh       float64 `yaml:"overshoot_kmh" json:"overshoot_kmh" validate:"gte=0"`
	CreepSpeedKmh      float64 `yaml:"creep_speed_kmh" json:"creep_speed_kmh" validate:"gte=0,ltfield=MaxSpeedKmh"`
	DwellSeconds       float64 `yaml:"dwell_seconds" json:"dwell_seconds" validate:"gte=0"`
	AccelRate          float64 `yaml:"acceleration_rate" json:"acceleration_rate" validate:"gt=0"`
	DecelRate          float64 `yaml:"deceleration_rate" json:"deceleration_rate" validate:"gt=0"`
	AccelEnd           float64 `yaml:"accel_end_progress" json:"accel_end_progress" validate:"gt=0,lt=1"`
	DecelStart         float64 `yaml:"brake_start_progress" json:"brake_start_progress" validate:"gtefield=AccelEnd,lt=1"`
	MinBrakeTempC      float64 `yaml:"min_regen_temp" json:"min_regen_temp"`
	MaxBrakeTempC      float64 `yaml:"max_regen_temp" json:"max_regen_temp" validate:"gtfield=MinBrakeTempC"`
	EnergyRecoveryRate float64 `yaml:"energy_recovery_rate" json:"energy_recovery_rate" validate:"gte=0"` // kWh per second of braking
	SpeedNoiseKmh      float64 `yaml:"speed_noise_kmh" json:"speed_noise_kmh" validate:"gte=0"`
	MaxTickSeconds     float64 `yaml:"max_tick_seconds" json:"max_tick_seconds" validate:"gt=0"`
	ETABaselineKmh     float64 `yaml:"eta_baseline_kmh" json:"eta_baseline_kmh" validate:"gte=0"`
}

// DefaultParams returns the physics used for the Panama Metro network.
func DefaultParams() Params {
	return Params{
		MaxSpeedKmh:        80,
		OvershootKmh:       5,
		CreepSpeedKmh:      3,
		DwellSeconds:       15,
		AccelRate:          1.2,
		DecelRate:          1.0,
		AccelEnd:           0.25,
		DecelStart:         0.75,
		MinBrakeTempC:      40,
		MaxBrakeTempC:      90,
		EnergyRecoveryRate: 0.15,
		SpeedNoiseKmh:      0.5,
		MaxTickSeconds:     1.0,
		ETABaselineKmh:     40,
	}
}

// SpeedLimit is the hard upper bound for a vehicle's speed.
func (p Params) SpeedLimit() float64 {
	return p.MaxSpeedKmh + p.OvershootKmh
}
