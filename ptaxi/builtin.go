package ptaxi

// This file documents the engine's one built-in (non-declarative)
// behavior, NO_RETURN_COPY, wired through WithNoReturnCopy in engine.go.
//
// NO_RETURN_COPY clears the return-address register's own tag whenever it
// gets stored to memory under enforcement, so only one live copy of the
// return-address tag exists at a time. That clear targets the STORE's
// ARG1 role (the rs2 source register), but a declarative Policy can only
// mutate the OUT role's tag (the memory destination for a STORE) — so
// this behavior cannot be expressed as an installed Policy and is kept as
// engine code, gated the same way a Policy would be (enabled,
// non-supervisor) but applied unconditionally to matching stores rather
// than through the predicate/action pipeline.
