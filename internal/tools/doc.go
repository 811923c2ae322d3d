// Package tools hosts the tool catalog and the dispatcher that executes it.
//
// A [Registry] holds tool descriptors in registration order. Each descriptor
// carries a JSON Schema inferred from the tool's typed input struct; the schema
// is resolved once and used to validate every argument bag before the handler
// runs.
//
// A [Dispatcher] is the only entry point transports use. [Dispatcher.Call]
// never returns a Go error: unknown tools, invalid arguments, expected tool
// failures and host faults all come back as an error [Result], so a bad call
// can never tear down a session.
//
// Expected failures are reported by handlers as [*ToolError] values (for
// example [ErrDivisionByZero] or [ErrKeyNotFound]). Anything else a handler
// returns, and any panic, is treated as a host fault and logged at error level.
//
// [Builtin] registers the standard tool set over a shared storage.Store:
//
//	calculator, storage_set, storage_get, storage_delete, storage_list,
//	system_info, echo
package tools
