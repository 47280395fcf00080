package optimizer

import (
	"context"
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/riskibarqy/fantasy-autopick/internal/domain/selection"
)

const (
	DefaultNodeLimit = 20000

	integralityTol = 1e-6
	simplexTol     = 1e-10
)

const (
	free   int8 = -1
	fixed0 int8 = 0
	fixed1 int8 = 1
)

var errNodeInfeasible = errors.New("node infeasible")

// BranchAndBound solves 0/1 models by depth-first branch and bound over the
// LP relaxation, using gonum's simplex for every node.
type BranchAndBound struct {
	nodeLimit int
}

func NewBranchAndBound(nodeLimit int) *BranchAndBound {
	if nodeLimit <= 0 {
		nodeLimit = DefaultNodeLimit
	}
	return &BranchAndBound{nodeLimit: nodeLimit}
}

// Solve returns a maximizing binary assignment. It reports
// selection.ErrInfeasible when no assignment satisfies every row and
// selection.ErrSolverTimeout when ctx ends or the node limit is reached
// before the search completes.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) ([]bool, error) {
	root := make([]int8, m.NumVars())
	for i := range root {
		root[i] = free
	}

	var (
		best      []bool
		bestValue = math.Inf(-1)
		stack     = [][]int8{root}
		nodes     int
	)
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, crerr.Wrapf(selection.ErrSolverTimeout, "branch and bound stopped after %d nodes: %v", nodes, err)
		}
		if nodes >= b.nodeLimit {
			return nil, crerr.Wrapf(selection.ErrSolverTimeout, "branch and bound exceeded %d nodes", b.nodeLimit)
		}
		nodes++

		state := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, err := relax(m, state)
		// A single simplex call cannot be interrupted, so the deadline may
		// have passed while it ran.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, crerr.Wrapf(selection.ErrSolverTimeout, "branch and bound stopped after %d nodes: %v", nodes, ctxErr)
		}
		if errors.Is(err, errNodeInfeasible) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if node.value <= bestValue+integralityTol {
			continue
		}

		j := node.branchVar()
		if j < 0 {
			x := node.rounded()
			if err := m.Check(x); err != nil {
				return nil, crerr.Wrap(err, "relaxation returned an integral point outside the model")
			}
			best, bestValue = x, m.Value(x)
			continue
		}

		down := slices.Clone(node.state)
		down[j] = fixed0
		up := slices.Clone(node.state)
		up[j] = fixed1
		// Up is popped first: setting a fractional pick to 1 tends to reach a
		// good incumbent quickly on selection models.
		stack = append(stack, down, up)
	}

	if best == nil {
		return nil, crerr.Wrap(selection.ErrInfeasible, "no binary assignment satisfies the model")
	}
	return best, nil
}

// Check reports the first row a binary assignment violates.
func (m *Model) Check(x []bool) error {
	if len(x) != m.NumVars() {
		return crerr.Newf("assignment has %d values for %d variables", len(x), m.NumVars())
	}
	for _, r := range m.rows {
		var activity float64
		for j, a := range r.coeffs {
			if x[j] {
				activity += a
			}
		}
		if !satisfied(activity, r.sense, r.rhs) {
			return crerr.Newf("row %s violated: activity %.4f rhs %.4f", r.name, activity, r.rhs)
		}
	}
	return nil
}

func satisfied(activity float64, s sense, rhs float64) bool {
	switch s {
	case senseLE:
		return activity <= rhs+integralityTol
	case senseGE:
		return activity >= rhs-integralityTol
	default:
		return math.Abs(activity-rhs) <= integralityTol
	}
}

type relaxation struct {
	state []int8
	x     []float64
	value float64
}

// branchVar picks the most fractional free variable, lowest index on ties,
// or -1 when the relaxation is integral.
func (r relaxation) branchVar() int {
	best, bestDist := -1, integralityTol
	for j, v := range r.x {
		if r.state[j] != free {
			continue
		}
		frac := v - math.Floor(v)
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

func (r relaxation) rounded() []bool {
	out := make([]bool, len(r.x))
	for j, v := range r.x {
		out[j] = v >= 0.5
	}
	return out
}

type lpRow struct {
	vars   []int
	coeffs []float64
	sense  sense
	rhs    float64
}

// relax propagates the fixings in state and solves the LP relaxation of what
// is left: maximize over 0 <= x <= 1.
func relax(m *Model, state []int8) (relaxation, error) {
	state = slices.Clone(state)
	if err := propagate(m, state); err != nil {
		return relaxation{}, err
	}

	x := make([]float64, m.NumVars())
	for j, s := range state {
		if s == fixed1 {
			x[j] = 1
		}
	}

	rows, err := activeRows(m, state)
	if err != nil {
		return relaxation{}, err
	}

	freeVars := make([]int, 0, len(state))
	for j, s := range state {
		if s == free {
			freeVars = append(freeVars, j)
		}
	}
	if len(freeVars) == 0 {
		return relaxation{state: state, x: x, value: objective(m, x)}, nil
	}

	col := make(map[int]int, len(freeVars))
	for i, j := range freeVars {
		col[j] = i
	}

	nFree := len(freeVars)
	slackCols := 0
	for _, r := range rows {
		if r.sense != senseEQ {
			slackCols++
		}
	}
	nRows := nFree + len(rows)
	nCols := 2*nFree + slackCols
	if nRows > nCols {
		return relaxation{}, crerr.Newf("relaxation has %d rows for %d columns", nRows, nCols)
	}

	// Columns: free variables, then their upper-bound slacks, then one slack
	// or surplus per inequality row.
	A := mat.NewDense(nRows, nCols, nil)
	b := make([]float64, nRows)
	c := make([]float64, nCols)
	for i, j := range freeVars {
		c[i] = -m.objective[j]
		A.Set(i, i, 1)
		A.Set(i, nFree+i, 1)
		b[i] = 1
	}

	slack := 2 * nFree
	for k, r := range rows {
		i := nFree + k
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for n, j := range r.vars {
			A.Set(i, col[j], sign*r.coeffs[n])
		}
		switch r.sense {
		case senseLE:
			A.Set(i, slack, sign)
			slack++
		case senseGE:
			A.Set(i, slack, -sign)
			slack++
		}
		b[i] = sign * r.rhs
	}

	_, sol, err := lp.Simplex(c, A, b, simplexTol, nil)
	if errors.Is(err, lp.ErrInfeasible) {
		return relaxation{}, errNodeInfeasible
	}
	if err != nil {
		return relaxation{}, crerr.Wrapf(err, "simplex over %dx%d relaxation", nRows, nCols)
	}

	for i, j := range freeVars {
		x[j] = math.Min(1, math.Max(0, sol[i]))
	}
	return relaxation{state: state, x: x, value: objective(m, x)}, nil
}

func objective(m *Model, x []float64) float64 {
	var total float64
	for j, v := range x {
		total += m.objective[j] * v
	}
	return total
}

// propagate fixes every free variable whose value is forced by a row given
// the current fixings, until nothing changes.
func propagate(m *Model, state []int8) error {
	for changed := true; changed; {
		changed = false
		for _, r := range m.rows {
			var signs []float64
			switch r.sense {
			case senseLE:
				signs = []float64{1}
			case senseGE:
				signs = []float64{-1}
			default:
				signs = []float64{1, -1}
			}
			for _, sign := range signs {
				tightened, err := tighten(r.coeffs, r.rhs, sign, state)
				if err != nil {
					return err
				}
				changed = changed || tightened
			}
		}
	}
	return nil
}

// tighten enforces sign·Σ a·x <= sign·rhs on the free variables of a row.
func tighten(coeffs map[int]float64, rhs, sign float64, state []int8) (bool, error) {
	limit := sign * rhs
	minActivity := 0.0
	for j, a := range coeffs {
		a *= sign
		switch state[j] {
		case fixed1:
			limit -= a
		case free:
			if a < 0 {
				minActivity += a
			}
		}
	}
	if minActivity > limit+integralityTol {
		return false, errNodeInfeasible
	}

	changed := false
	for j, a := range coeffs {
		if state[j] != free {
			continue
		}
		a *= sign
		switch {
		case a > 0 && minActivity+a > limit+integralityTol:
			state[j] = fixed0
			changed = true
		case a < 0 && minActivity-a > limit+integralityTol:
			state[j] = fixed1
			changed = true
		}
	}
	return changed, nil
}

// activeRows substitutes fixed variables into every row and keeps only rows
// that still bind. Duplicate equality rows are merged so the LP keeps full
// row rank.
func activeRows(m *Model, state []int8) ([]lpRow, error) {
	out := make([]lpRow, 0, len(m.rows))
	seen := make(map[string]float64)
	for _, r := range m.rows {
		row := lpRow{sense: r.sense, rhs: r.rhs}
		minActivity, maxActivity := 0.0, 0.0
		for _, j := range sortedVars(r.coeffs) {
			a := r.coeffs[j]
			switch state[j] {
			case fixed1:
				row.rhs -= a
			case free:
				if a == 0 {
					continue
				}
				row.vars = append(row.vars, j)
				row.coeffs = append(row.coeffs, a)
				if a < 0 {
					minActivity += a
				} else {
					maxActivity += a
				}
			}
		}

		if len(row.vars) == 0 {
			if !satisfied(0, row.sense, row.rhs) {
				return nil, errNodeInfeasible
			}
			continue
		}

		switch row.sense {
		case senseLE:
			if maxActivity <= row.rhs+integralityTol {
				continue
			}
		case senseGE:
			if minActivity >= row.rhs-integralityTol {
				continue
			}
		default:
			key, rhs := rowKey(row)
			if prev, ok := seen[key]; ok {
				if math.Abs(prev-rhs) > integralityTol {
					return nil, errNodeInfeasible
				}
				continue
			}
			seen[key] = rhs
		}
		out = append(out, row)
	}
	return out, nil
}

func sortedVars(coeffs map[int]float64) []int {
	vars := make([]int, 0, len(coeffs))
	for j := range coeffs {
		vars = append(vars, j)
	}
	slices.Sort(vars)
	return vars
}

// rowKey scales an equality row by its first coefficient so multiples of
// the same row share a key, and returns the scaled rhs.
func rowKey(row lpRow) (string, float64) {
	scale := row.coeffs[0]
	var sb strings.Builder
	for n, j := range row.vars {
		sb.WriteString(strconv.Itoa(j))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(row.coeffs[n]/scale, 'g', 12, 64))
		sb.WriteByte(';')
	}
	return sb.String(), row.rhs / scale
}
