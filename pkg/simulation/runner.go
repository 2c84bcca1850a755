package simulation

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relab-tools/faultline/pkg/model"
)

const defaultTrials = 100_000

// RunScenario estimates the top event probability of the model by direct
// Monte Carlo sampling of the basic events. The run is deterministic for a
// fixed seed and worker count.
func RunScenario(s Scenario, m *model.Model) SimulationResult {
	if s.Seed == 0 {
		s.Seed = time.Now().UnixNano()
	}
	if s.Trials == 0 {
		s.Trials = defaultTrials
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}

	log.Printf("Running Scenario: %s (Seed: %d, Trials: %d)", s.Name, s.Seed, s.Trials)

	started := time.Now()
	res := SimulationResult{
		ScenarioName: s.Name,
		Trials:       s.Trials,
		Seed:         s.Seed,
		EventStats:   make(map[string]*EventStats),
	}

	probs := make([]float64, len(m.Basic))
	index := make(map[*model.BasicEvent]int, len(m.Basic))
	for i, e := range m.Basic {
		probs[i] = e.P(s.MissionTime)
		index[e] = i
		res.EventStats[e.Name] = &EventStats{}
	}

	var failures uint64
	var wg sync.WaitGroup

	// Split trials across workers; the first worker absorbs the remainder.
	per := s.Trials / uint64(s.Workers)
	rem := s.Trials % uint64(s.Workers)

	for w := 0; w < s.Workers; w++ {
		trials := per
		if w == 0 {
			trials += rem
		}
		if trials == 0 {
			continue
		}
		wg.Add(1)
		workerSeed := s.Seed + int64(w)*1000

		go func(trials uint64, seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			state := make([]bool, len(m.Basic))
			memo := make(map[*model.Gate]bool, len(m.Gates)+1)

			for t := uint64(0); t < trials; t++ {
				for i, p := range probs {
					state[i] = rng.Float64() < p
				}
				for k := range memo {
					delete(memo, k)
				}
				top := evaluate(m.Top, index, state, memo)
				if top {
					atomic.AddUint64(&failures, 1)
				}
				for i, e := range m.Basic {
					if !state[i] {
						continue
					}
					st := res.EventStats[e.Name]
					atomic.AddUint64(&st.Occurred, 1)
					if top {
						atomic.AddUint64(&st.Coincident, 1)
					}
				}
			}
		}(trials, workerSeed)
	}

	wg.Wait()

	res.Elapsed = time.Since(started)
	res.Failures = atomic.LoadUint64(&failures)
	res.Estimate = float64(res.Failures) / float64(res.Trials)
	res.StdErr = math.Sqrt(res.Estimate * (1 - res.Estimate) / float64(res.Trials))
	res.ConfLow = math.Max(0, res.Estimate-1.96*res.StdErr)
	res.ConfHigh = math.Min(1, res.Estimate+1.96*res.StdErr)

	evaluateChecks(&res, s.Checks)

	res.Success = true
	for _, c := range res.Checks {
		if !c.Passed {
			res.Success = false
			break
		}
	}

	return res
}

// evaluate walks the gate graph for one sampled state vector. Gate values
// are memoized per trial so shared subtrees are computed once.
func evaluate(g *model.Gate, index map[*model.BasicEvent]int, state []bool, memo map[*model.Gate]bool) bool {
	if v, ok := memo[g]; ok {
		return v
	}

	args := make([]bool, len(g.Args))
	for i, arg := range g.Args {
		switch {
		case arg.Gate != nil:
			args[i] = evaluate(arg.Gate, index, state, memo)
		case arg.Basic != nil:
			args[i] = state[index[arg.Basic]]
		case arg.House != nil:
			args[i] = arg.House.State
		}
	}

	var v bool
	switch g.Op {
	case model.And, model.Inhibit:
		v = true
		for _, a := range args {
			v = v && a
		}
	case model.Or:
		for _, a := range args {
			v = v || a
		}
	case model.Nand:
		v = true
		for _, a := range args {
			v = v && a
		}
		v = !v
	case model.Nor:
		for _, a := range args {
			v = v || a
		}
		v = !v
	case model.Not:
		v = !args[0]
	case model.Null:
		v = args[0]
	case model.Xor:
		v = args[0] != args[1]
	case model.AtLeast:
		count := 0
		for _, a := range args {
			if a {
				count++
			}
		}
		v = count >= g.K
	}

	memo[g] = v
	return v
}

func evaluateChecks(res *SimulationResult, checks []Check) {
	for _, c := range checks {
		var actual float64
		switch c.Metric {
		case "estimate":
			actual = res.Estimate
		case "std_err":
			actual = res.StdErr
		default:
			res.Checks = append(res.Checks, CheckResult{
				Metric: c.Metric, Expected: fmt.Sprintf("%s %.4g", c.Condition, c.Value), Actual: "N/A", Passed: false,
			})
			continue
		}

		var passed bool
		switch c.Condition {
		case ">":
			passed = actual > c.Value
		case ">=":
			passed = actual >= c.Value
		case "<":
			passed = actual < c.Value
		case "<=":
			passed = actual <= c.Value
		case "==":
			passed = math.Abs(actual-c.Value) < 0.0001
		}

		res.Checks = append(res.Checks, CheckResult{
			Metric:   c.Metric,
			Expected: fmt.Sprintf("%s %.4g", c.Condition, c.Value),
			Actual:   fmt.Sprintf("%.4f", actual),
			Passed:   passed,
		})
	}
}
