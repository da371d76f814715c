// Package domain defines the core business entities of the Daybook
// application: tasks, task groups and users, plus the pure logic that
// operates on them (UTC normalization, the partial-update merge table and
// summary aggregation). Nothing in this package touches storage, the
// network or the clock beyond values passed in by callers, with the
// exception of constructors stamping creation timestamps.
package domain
