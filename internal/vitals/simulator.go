// ABOUTME: Physiological vitals simulator
// ABOUTME: Advances breathing and trend phases into a clamped vitals snapshot
package vitals

import (
	"math"
	"math/rand"
)

// Documented clinical bounds; every snapshot field is clamped to these
// after composition.
const (
	RespMin, RespMax                     = 12.0, 22.0
	SpO2Min, SpO2Max                     = 94.0, 100.0
	SystolicMin, SystolicMax             = 100.0, 140.0
	DiastolicMin, DiastolicMax           = 60.0, 90.0
	BaselineHRMin, BaselineHRMax         = 65.0, 90.0
	DisplayHRMin, DisplayHRMax           = 30.0, 250.0
	TempCoreMin, TempCoreMax             = 36.5, 37.8
	TempPeripheralMin, TempPeripheralMax = 36.2, 37.3
	TempSkinMin, TempSkinMax             = 35.8, 37.2
	TempGradientMin, TempGradientMax     = 0.0, 0.8
)

// Snapshot is one tick's worth of simulated vitals. HeartRate is always
// populated; HeartRateFromBeats distinguishes an estimator-backed reading
// from the simulated baseline.
type Snapshot struct {
	HeartRate          float64
	HeartRateFromBeats bool
	SpO2               float64
	Systolic           float64
	Diastolic          float64
	MeanArterial       float64
	RespRate           float64
	TempCore           float64
	TempPeripheral     float64
	TempSkin           float64
	TempGradient       float64
}

// State holds the simulator's persistent accumulators and its seeded
// noise stream. It is owned by the Simulator and survives across ticks;
// it is reset only on explicit reload.
type State struct {
	BreathPhase float64 // Radians, one cycle per breath
	TrendPhase  float64 // Radians, slow circadian-like drift
	Elapsed     float64 // Simulated seconds since reset
	rng         *rand.Rand
}

// Simulator produces correlated vitals. All randomness comes from the
// seeded stream in State, so a fixed seed reproduces an identical
// sequence.
type Simulator struct {
	seed  int64
	state State
}

// New creates a simulator with a reproducible noise stream.
func New(seed int64) *Simulator {
	s := &Simulator{seed: seed}
	s.Reset()
	return s
}

// Reset rewinds the phase accumulators and reseeds the noise stream.
func (s *Simulator) Reset() {
	s.state = State{rng: rand.New(rand.NewSource(s.seed))}
}

// State returns a copy of the accumulators for inspection.
func (s *Simulator) State() State {
	return s.state
}

// Trend period of roughly ten minutes for the slow pressure drift.
const trendPeriodSeconds = 600.0

// Advance moves the simulation forward by dt seconds and composes a
// snapshot. hr/hasHR carry the estimator's reading; without one the
// simulator substitutes its own wandering baseline.
func (s *Simulator) Advance(dt float64, hr float64, hasHR bool) Snapshot {
	st := &s.state
	st.Elapsed += dt
	tt := st.Elapsed

	// Respiration first: its rate drives the breathing phase that the
	// other vitals couple to.
	resp := clamp(17.5+1.5*math.Sin(0.008*tt)+0.8*math.Cos(0.05*tt)+s.noise(0.3), RespMin, RespMax)
	st.BreathPhase += 2 * math.Pi * (resp / 60.0) * dt
	st.TrendPhase += 2 * math.Pi * dt / trendPeriodSeconds

	breath := math.Sin(st.BreathPhase)
	slowTrend := 4.0 * math.Sin(st.TrendPhase)

	// SpO2 dips slightly during the expiration half of the cycle.
	dip := 0.0
	if breath < 0 {
		dip = 0.5 * breath
	}
	spo2 := clamp(97.5+dip+s.noise(0.8), SpO2Min, SpO2Max)

	// Respiratory sinus arrhythmia: +/-2 BPM around whichever base we have.
	hrMod := 2.0 * breath
	var heartRate float64
	if hasHR {
		heartRate = clamp(hr+hrMod, DisplayHRMin, DisplayHRMax)
	} else {
		heartRate = clamp(76.0+hrMod+s.noise(1.5), BaselineHRMin, BaselineHRMax)
	}

	sys := clamp(118.0+slowTrend+3.0*breath+s.noise(5.0), SystolicMin, SystolicMax)
	dia := clamp(78.0+slowTrend*0.5+2.0*breath+s.noise(3.0), DiastolicMin, DiastolicMax)
	if dia > sys {
		dia = sys
	}
	meanArterial := dia + (sys-dia)/3.0

	t1 := clamp(37.0+0.2*math.Sin(0.003*tt)+0.1*math.Cos(0.0008*tt), TempCoreMin, TempCoreMax)
	t2 := clamp(36.8+0.3*math.Sin(0.005*tt)+0.15*math.Cos(0.012*tt), TempPeripheralMin, TempPeripheralMax)
	t3 := clamp(36.5+0.5*math.Sin(0.008*tt)+0.2*math.Cos(0.015*tt), TempSkinMin, TempSkinMax)
	t4 := clamp(0.2+0.15*math.Sin(0.01*tt)+(t1-t2)*0.5, TempGradientMin, TempGradientMax)

	return Snapshot{
		HeartRate:          heartRate,
		HeartRateFromBeats: hasHR,
		SpO2:               spo2,
		Systolic:           sys,
		Diastolic:          dia,
		MeanArterial:       meanArterial,
		RespRate:           resp,
		TempCore:           t1,
		TempPeripheral:     t2,
		TempSkin:           t3,
		TempGradient:       t4,
	}
}

// noise draws a uniform value in [-amplitude, amplitude] from the seeded
// stream.
func (s *Simulator) noise(amplitude float64) float64 {
	return (s.state.rng.Float64()*2 - 1) * amplitude
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
