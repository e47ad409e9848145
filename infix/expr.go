package infix

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrDivisionByZero    = errors.New("division by zero")
)

// Env holds the variables of a program.
type Env map[string]float64

type Expr interface {
	Eval(env Env) (float64, error)
	String() string
}

type Number float64

func (n Number) Eval(Env) (float64, error) { return float64(n), nil }

func (n Number) String() string { return strconv.FormatFloat(float64(n), 'g', -1, 64) }

type Var string

func (v Var) Eval(env Env) (float64, error) {
	f, ok := env[string(v)]
	if !ok {
		return 0, errors.Wrapf(ErrUndefinedVariable, "%q", string(v))
	}
	return f, nil
}

func (v Var) String() string { return string(v) }

type Neg struct {
	X Expr
}

func (n Neg) Eval(env Env) (float64, error) {
	f, err := n.X.Eval(env)
	return -f, err
}

func (n Neg) String() string { return "-" + n.X.String() }

type Binary struct {
	Op   string
	L, R Expr
}

func (b Binary) Eval(env Env) (float64, error) {
	l, err := b.L.Eval(env)
	if err != nil {
		return 0, err
	}
	r, err := b.R.Eval(env)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/", "%":
		if r == 0 {
			return 0, errors.Wrapf(ErrDivisionByZero, "%v", b)
		}
		if b.Op == "/" {
			return l / r, nil
		}
		return math.Mod(l, r), nil
	case "^":
		return math.Pow(l, r), nil
	}
	return 0, errors.AssertionFailedf("unknown operator %q", b.Op)
}

func (b Binary) String() string {
	return "(" + b.L.String() + " " + b.Op + " " + b.R.String() + ")"
}

// Assign evaluates X, stores it under Name, and evaluates to it.
type Assign struct {
	Name string
	X    Expr
}

func (a Assign) Eval(env Env) (float64, error) {
	f, err := a.X.Eval(env)
	if err != nil {
		return 0, err
	}
	env[a.Name] = f
	return f, nil
}

func (a Assign) String() string { return a.Name + " = " + a.X.String() }

type Program []Expr

// Eval runs every statement in order. env may be nil.
func (p Program) Eval(env Env) ([]float64, error) {
	if env == nil {
		env = Env{}
	}
	out := make([]float64, 0, len(p))
	for i, x := range p {
		f, err := x.Eval(env)
		if err != nil {
			return out, errors.Wrapf(err, "statement %d", i+1)
		}
		out = append(out, f)
	}
	return out, nil
}

func (p Program) String() string {
	parts := make([]string, len(p))
	for i, x := range p {
		parts[i] = x.String()
	}
	return strings.Join(parts, "; ")
}
