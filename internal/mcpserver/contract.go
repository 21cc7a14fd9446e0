package mcpserver

// SyncContract describes the rules the sync engine enforces. It is exposed
// both as a tool result and as an MCP resource so that an LLM client can
// reason about what a sync will and will not do before suggesting one.
const SyncContract = `# GUID Sync Contract

## Direction

Synchronization is one-way. The main project is the source of truth for
GUIDs; only files in the subordinate project are ever rewritten. No tool on
this server modifies any file.

## What gets rewritten

For each asset present in both trees (matched by identical relative path
under the asset directory) whose declared GUIDs differ:

- the GUID declaration in the subordinate asset's meta file, and
- every textual reference to the old GUID anywhere in the subordinate tree.

GUIDs are 32 hexadecimal characters. Matches embedded in longer
alphanumeric runs (for example a 64-character content hash) are never
treated as GUIDs. Rewrites preserve file length; replacement GUIDs are
written in lowercase.

## What gets skipped

- Assets that exist only in the subordinate tree keep their GUIDs.
- Assets whose relative path is claimed by more than one meta file are
  skipped as ambiguous.
- Assets whose GUIDs already agree produce no operations.

## What aborts a scan or plan

- A GUID declared by two different assets within one tree (duplicate).
- Two different source GUIDs mapping to the same target GUID (collision).

Both conditions abort before any plan is produced; there are no partial
plans.

## Execution safety

Execution (CLI only) is atomic per file: each file is rewritten via a
temporary file and rename, so a file either carries all of its planned
rewrites or none. Files that changed on disk between scan and execution
are re-verified token by token and skipped if any expected GUID is no
longer at its recorded position.
`
