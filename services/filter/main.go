package filter

import "os"

// Compile accepts either a rule document path or an inline expression.
// "" and "-" mean no filter.
func Compile(arg string) (*Spec, error) {
	if arg == "" || arg == "-" {
		return &Spec{}, nil
	}
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		return CompileFile(arg)
	}
	return CompileExpression(arg)
}
