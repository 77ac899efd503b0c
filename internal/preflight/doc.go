// Package preflight provides readiness checks for external services
// and filesystem paths that ytbili depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failure so a doomed
//     configuration shows up before the first job is picked.
//   - The CLI "ytbili status" command renders the same results next to the
//     binary checks from the deps package.
//
// Each provider check is gated by the config that selects it.
package preflight
