package rtk

// NoSolver is a placeholder Engine that always fails to solve. It lets
// the supervisor wire the full fusion pipeline — session handoff,
// dictionary snapshotting, ObsD projection — ahead of a real RTK
// solver being plugged in, and is the engine cmd/genesisd always wires
// in; genesisd has no option to select another.
type NoSolver struct{}

func (NoSolver) Init(PrcOpt)                     {}
func (NoSolver) Process([]ObsD, *Nav) bool        { return false }
func (NoSolver) Solution() Sol                    { return Sol{} }
func (NoSolver) BaseState() [6]float64            { return [6]float64{} }
func (NoSolver) Close()                           {}
