package models

// DynTag is a DT_* dynamic section tag. Only the tags the loader actually
// consults get names; Binary.DynTag accepts any raw value so a caller
// parsing additional tags for their own purposes isn't blocked.
type DynTag int64

const (
	DT_NULL   DynTag = 0
	DT_PLTGOT DynTag = 3
	DT_RELA   DynTag = 7
	DT_RELASZ DynTag = 8
)
