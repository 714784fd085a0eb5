// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The issue catalog holds Markdown explanations of the
// dispatcher's failure modes, rendered with glamour by "wranglerctl explain".
package issue
