// Package api implements the Cucumber Studio operations that studiomcp
// exposes as MCP tools.
//
// A Service composes one or more calls on a Requester (normally a
// *studio.Client, which owns caching and invalidation) into the domain
// operations: listing and reading projects, scenarios and folders, and
// creating, updating and deleting scenarios, tags and folders.
//
// Scenario definitions are converted through package scenario: reads
// normalize the definition and parse it into steps, writes render the
// steps into a definition.
//
// Operations that write steps or tags finish by re-reading the affected
// scenario, so the returned value always reflects the upstream state after
// the mutation rather than a locally merged copy.
//
// Adding several tags follows a collect-and-continue policy: every tag is
// attempted, each failure is logged and reported, and the operation only
// fails as a whole (with a *PartialFailureError) when no tag was added.
package api
