package ast

// TypeKind is the dialect-independent family of a column data type.
type TypeKind int

const (
	String TypeKind = iota
	Text
	Integer
	Float
	Boolean
	Timestamp
	Blob
)

// DataType describes a column type without committing to a dialect's spelling.
// Renderers translate it, e.g. a timezone-aware Timestamp becomes
// TIMESTAMP WITH TIME ZONE on PostgreSQL and DATETIME2(6) on SQL Server.
type DataType struct {
	Kind TypeKind
	// Length applies to String.
	Length int
	// Collation is rendered after the type when set.
	Collation string
	// Timezone applies to Timestamp.
	Timezone bool
	// Precision is the fractional seconds precision for Timestamp; 0 means the dialect default.
	Precision int
}

// StringType returns a VARCHAR-like type of the given length.
func StringType(length int) DataType {
	return DataType{Kind: String, Length: length}
}

// TimestampType returns a timestamp type, optionally timezone-aware.
func TimestampType(timezone bool) DataType {
	return DataType{Kind: Timestamp, Timezone: timezone}
}

// WithCollation returns a copy of the type using the given collation.
func (t DataType) WithCollation(collation string) DataType {
	t.Collation = collation
	return t
}
