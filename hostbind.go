package hostbind

// Reserved host-side names shared by the generator, the binder and the
// codecs. A Binder may override both through bind.Config.
const (
	// IdentityMethod is the zero-argument host method that reports the
	// identity tag of an exported instance.
	IdentityMethod = "__getClassname"

	// PointerProperty is the own property of an exported instance holding
	// its slot handle. Zero means the instance was consumed or freed.
	PointerProperty = "__hb_ptr"

	// GeneratedFile is the default output file of hostbind-gen.
	GeneratedFile = "hostbind_gen.go"
)
