// Package reconcile updates a host tree to match a virtual tree.
//
// A Reconciler is given the previous host-backed node list, which owns the
// host nodes through Node.HostRef, and a freshly built list. It reuses what
// it can and mutates the host through the Host interface only where the two
// lists differ:
//
//   - keyed nodes are matched by key;
//   - unkeyed nodes are compared index by index using a weighted similarity
//     score, and a node whose kind or tag changed is re-homed onto the best
//     scoring unmatched previous node, displacing weaker matches;
//   - unmatched previous nodes are removed, unmatched new nodes are mounted,
//     and the surviving host nodes are moved into the new order.
//
// Reconciling the same list twice in a row performs no host mutations the
// second time.
//
// Internal invariant violations, such as removing a node that was never
// mounted, are returned as errors with codes E301 and E302. They indicate a
// bug in the caller and leave the host tree in an unspecified state.
package reconcile
