package types

import (
	"fmt"
	"strconv"
	"strings"
)

// BCTAG labels a boundary segment of the domain. Interior facets carry BC_None.
type BCTAG int

const (
	BC_None BCTAG = iota
	BC_Left
	BC_Right
	BC_Bottom
	BC_Top
)

var BCNameMap = map[string]BCTAG{
	"left":   BC_Left,
	"inlet":  BC_Left,
	"inflow": BC_Left,
	"right":  BC_Right,
	"outlet": BC_Right,
	"bottom": BC_Bottom,
	"lower":  BC_Bottom,
	"top":    BC_Top,
	"upper":  BC_Top,
}

// NewBCTAG parses a boundary marker. Named markers use BCNameMap, anything else must be a positive integer
func NewBCTAG(label string) (tag BCTAG, err error) {
	var (
		lbl = strings.ToLower(strings.TrimSpace(label))
		ok  bool
		n   int
	)
	if tag, ok = BCNameMap[lbl]; ok {
		return
	}
	if n, err = strconv.Atoi(lbl); err != nil || n <= 0 {
		err = fmt.Errorf("unknown boundary marker [%s], use one of left/right/bottom/top or a positive integer", label)
		return
	}
	tag = BCTAG(n)
	return
}

func (bt BCTAG) IsBoundary() bool { return bt != BC_None }

func (bt BCTAG) String() string {
	switch bt {
	case BC_None:
		return "interior"
	case BC_Left:
		return "left"
	case BC_Right:
		return "right"
	case BC_Bottom:
		return "bottom"
	case BC_Top:
		return "top"
	}
	return "marker-" + strconv.Itoa(int(bt))
}
