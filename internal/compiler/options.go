package compiler

// DefaultImportPath is the runtime package generated code calls into.
const DefaultImportPath = "github.com/conneroisu/statickit/pkg/block"

// DefaultPackage names the package of generated files.
const DefaultPackage = "gen"

// Option configures Compile and CompileDir.
type Option func(*options)

type options struct {
	importPath string
	pkg        string
	modulePath string
	source     string
}

func newOptions(opts []Option) options {
	o := options{importPath: DefaultImportPath, pkg: DefaultPackage}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithImportPath sets the import path of the block runtime package.
func WithImportPath(path string) Option {
	return func(o *options) {
		if path != "" {
			o.importPath = path
		}
	}
}

// WithPackage sets the package clause of generated files.
func WithPackage(name string) Option {
	return func(o *options) {
		if name != "" {
			o.pkg = name
		}
	}
}

// WithModulePath tells the formatter which module the output belongs to.
func WithModulePath(path string) Option {
	return func(o *options) {
		o.modulePath = path
	}
}

// WithSource records the template path in the generated file header.
func WithSource(path string) Option {
	return func(o *options) {
		o.source = path
	}
}
