// Package targetadmin administers iSER exports through a target helper.
//
// The tgtadm helper keeps one configuration record per volume under
// volumes_dir (which tgtd must include) and drives tgt-admin to apply,
// query and delete exports. The fake helper hands out target ids without
// touching the system.
//
// # Logging Verbosity Convention
//
// This package follows Kubernetes logging conventions for verbosity levels:
//
//   - V(0): Always visible - failed exports, rollbacks, configuration mismatches
//   - V(2): Production default - operation outcomes
//     Examples: "Created iser target X", "Removed iser target Y"
//   - V(4): Debug level - intermediate steps
//     Examples: "Wrote configuration record", "Resolved target id"
//   - V(5): Trace level - tgt-admin command lines and raw output (see pkg/execute)
//
// Production deployments use V(2) by default. Set --v=4 for troubleshooting.
package targetadmin
