package reqtemplate

// Script is the scripted-resolver template (spec §4.B "Script template"):
// invokes a named function in the configured worker (internal/jsvm).
type Script struct {
	Name string
}
