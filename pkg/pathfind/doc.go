// Package pathfind finds source to target paths that cover a set of required
// nodes and edges of a [pangraph.Graph].
//
// [FindConstrainedPath] is exact: it returns a shortest path visiting every
// element of a given rank, or reports that none exists. Its state space grows
// exponentially with the number of required elements, so callers check
// [Feasible] first and fall back to [PrizeCollectingPath], a greedy insertion
// heuristic that covers as many elements as it can within a detour bound.
package pathfind
