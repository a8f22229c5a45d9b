// Package domain defines the core business types for the fleet email
// lifecycle engine: tracked inboxes, stage history, message
// classifications, alerts, and scan logs.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
