package scoring

// Strategy names a preset of factor weights.
type Strategy string

const (
	StrategySmart    Strategy = "smart"
	StrategyFast     Strategy = "fast"
	StrategyImpact   Strategy = "impact"
	StrategyDeadline Strategy = "deadline"
)

// Factor names one of the four scoring factors. The names double as the keys
// accepted in weight overrides.
type Factor string

const (
	FactorUrgency    Factor = "urgency"
	FactorImportance Factor = "importance"
	FactorEffort     Factor = "effort"
	FactorDependency Factor = "dependency"
)

// Factors lists the factors in scoring order.
var Factors = []Factor{FactorUrgency, FactorImportance, FactorEffort, FactorDependency}

// Weights is the contribution of each factor to the total score. Resolved
// weights always sum to 1.
type Weights struct {
	Urgency    float64 `json:"urgency"`
	Importance float64 `json:"importance"`
	Effort     float64 `json:"effort"`
	Dependency float64 `json:"dependency"`
}

var presets = map[Strategy]Weights{
	StrategySmart:    {Urgency: 0.35, Importance: 0.35, Effort: 0.15, Dependency: 0.15},
	StrategyFast:     {Urgency: 0.20, Importance: 0.20, Effort: 0.50, Dependency: 0.10},
	StrategyImpact:   {Urgency: 0.15, Importance: 0.60, Effort: 0.10, Dependency: 0.15},
	StrategyDeadline: {Urgency: 0.60, Importance: 0.20, Effort: 0.05, Dependency: 0.15},
}

// Strategies returns the known strategy names.
func Strategies() []Strategy {
	return []Strategy{StrategySmart, StrategyFast, StrategyImpact, StrategyDeadline}
}

// Valid reports whether s names a preset.
func (s Strategy) Valid() bool {
	_, ok := presets[s]
	return ok
}

// ValidFactor reports whether name is one of the four factor names.
func ValidFactor(name string) bool {
	for _, f := range Factors {
		if string(f) == name {
			return true
		}
	}
	return false
}

func (w Weights) Sum() float64 {
	return w.Urgency + w.Importance + w.Effort + w.Dependency
}

// Of returns the weight of factor f.
func (w Weights) Of(f Factor) float64 {
	switch f {
	case FactorUrgency:
		return w.Urgency
	case FactorImportance:
		return w.Importance
	case FactorEffort:
		return w.Effort
	case FactorDependency:
		return w.Dependency
	}
	return 0
}

func (w *Weights) set(f Factor, v float64) {
	switch f {
	case FactorUrgency:
		w.Urgency = v
	case FactorImportance:
		w.Importance = v
	case FactorEffort:
		w.Effort = v
	case FactorDependency:
		w.Dependency = v
	}
}

// ResolveWeights returns the preset for strategy, falling back to smart for
// unknown names. Override keys naming a factor replace the preset value and
// the result is renormalized to sum to 1; other keys are ignored.
func ResolveWeights(strategy Strategy, overrides map[string]float64) Weights {
	w, ok := presets[strategy]
	if !ok {
		w = presets[StrategySmart]
	}
	if len(overrides) == 0 {
		return w
	}

	for _, f := range Factors {
		if v, ok := overrides[string(f)]; ok {
			w.set(f, v)
		}
	}
	if total := w.Sum(); total > 0 {
		w = Weights{
			Urgency:    w.Urgency / total,
			Importance: w.Importance / total,
			Effort:     w.Effort / total,
			Dependency: w.Dependency / total,
		}
	}
	return w
}
