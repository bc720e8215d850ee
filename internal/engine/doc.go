// Package engine contains the simulation systems and the lifecycle
// controller for the virtual pet.
//
// ARCHITECTURAL RULE: the engine never reads the wall clock directly.
// Time enters through the clock package and is handed to pure rules as
// explicit deltas, so every path can be replayed deterministically.
package engine
