package sward

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pthm-cable/sward/config"
)

// Action is a management operation on the sward.
type Action int

const (
	// GrazeResidue grazes the standing DM down to a residual amount (kg/ha).
	GrazeResidue Action = iota
	// GrazeRemove grazes an absolute amount of DM (kg/ha).
	GrazeRemove
	// Cut removes a fraction of the harvestable DM.
	Cut
	// Kill returns a fraction of the plants to the soil.
	Kill
)

var actionNames = map[string]Action{
	"graze_residue": GrazeResidue,
	"graze_remove":  GrazeRemove,
	"cut":           Cut,
	"kill":          Kill,
}

func (a Action) String() string {
	for name, v := range actionNames {
		if v == a {
			return name
		}
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Operation is one dated entry of the management schedule. An empty
// Species applies to the whole sward.
type Operation struct {
	Date    time.Time
	Action  Action
	Amount  float64
	Species string
}

func (o Operation) String() string {
	s := fmt.Sprintf("%s %s(%g)", o.Date.Format(config.DateLayout), o.Action, o.Amount)
	if o.Species != "" {
		s += " " + o.Species
	}
	return s
}

// ParseOperation reads a schedule line of the form
// "YYYY-MM-DD action(amount) [species]".
func ParseOperation(line string) (Operation, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return Operation{}, fmt.Errorf("schedule %q: want \"date action(amount) [species]\"", line)
	}
	date, err := time.Parse(config.DateLayout, fields[0])
	if err != nil {
		return Operation{}, fmt.Errorf("schedule %q: %w", line, err)
	}

	call := fields[1]
	open := strings.IndexByte(call, '(')
	if open <= 0 || !strings.HasSuffix(call, ")") {
		return Operation{}, fmt.Errorf("schedule %q: malformed action %q", line, call)
	}
	action, ok := actionNames[strings.ToLower(call[:open])]
	if !ok {
		return Operation{}, fmt.Errorf("schedule %q: unknown action %q", line, call[:open])
	}
	amount, err := strconv.ParseFloat(call[open+1:len(call)-1], 64)
	if err != nil {
		return Operation{}, fmt.Errorf("schedule %q: amount: %w", line, err)
	}

	switch action {
	case GrazeResidue, GrazeRemove:
		if amount < 0 {
			return Operation{}, fmt.Errorf("schedule %q: negative amount", line)
		}
	case Cut, Kill:
		if amount < 0 || amount > 1 {
			return Operation{}, fmt.Errorf("schedule %q: fraction %g outside [0,1]", line, amount)
		}
	}

	op := Operation{Date: date, Action: action, Amount: amount}
	if len(fields) == 3 {
		op.Species = fields[2]
	}
	return op, nil
}

// ParseSchedule reads the schedule lines and orders them by date. Lines on
// the same date keep their order.
func ParseSchedule(lines []string) ([]Operation, error) {
	ops := make([]Operation, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		op, err := ParseOperation(line)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Date.Before(ops[j].Date) })
	return ops, nil
}
