package injector

const (
	emptyString = ""
	pathSep     = " -> "
	listSep     = ","
)

type tag string

const (
	inject    tag = "inject"    // inject marks a field as an injection point. The field MUST be exported.
	named     tag = "named"     // named attaches a Named qualifier to an injected field.
	qualifier tag = "qualifier" // qualifier attaches qualifiers registered with Types.RegisterQualifier.
)
