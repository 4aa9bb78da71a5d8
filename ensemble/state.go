package ensemble

// State is the fit state of an ensemble.
//
//     StateUnfit -> StateFitting -> StateFit
//         ^              |             |
//         +--------------+             |
//         ^       on failure           |
//         +----------------------------+
//                 on Add or AddMeta
//
type State int

const (
	StateUnfit State = iota
	StateFitting
	StateFit
)

func (s State) String() string {
	switch s {
	case StateFitting:
		return "fitting"
	case StateFit:
		return "fit"
	}

	return "unfit"
}
