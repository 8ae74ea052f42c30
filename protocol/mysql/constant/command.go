package constant

// Command bytes of the prepared statement sub-protocol
const (
	ComStmtPrepare byte = 0x16
	ComStmtExecute byte = 0x17
	ComStmtClose   byte = 0x19
)

// ParameterUnsignedFlag marks an unsigned integer in a parameter type pair
const ParameterUnsignedFlag byte = 0x80

// Binary result set row header
const BinaryRowHeader byte = 0x00
