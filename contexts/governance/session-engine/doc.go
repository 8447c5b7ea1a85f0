// Package sessionengine implements the voting-session workflow inside the
// governance context.
//
// The module owns the session state machine: the fixed six-stage workflow,
// voter and proposal bookkeeping, vote tallying, and recursive tie-break
// renewal into derived sessions. Business rules live in application/domain
// layers; infrastructure stays behind ports and adapters.
package sessionengine
