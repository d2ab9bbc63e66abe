package reader

import (
	"fmt"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/parsearch/expression"
)

// SchemaInfo describes one leaf column of a parquet file.
type SchemaInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	PhysicalType string `json:"physical_type"`
	LogicalType  string `json:"logical_type"`
	Required     bool   `json:"required"`
	Optional     bool   `json:"optional"`
	Repeated     bool   `json:"repeated"`
}

// ExtractSchemaInfo lists the leaf columns of a parquet file. Nested
// fields use dot notation (e.g. "address.street").
func ExtractSchemaInfo(path string) ([]SchemaInfo, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = r.Close() }()

	return schemaInfo(r.Schema()), nil
}

func schemaInfo(schema *parquet.Schema) []SchemaInfo {
	var infos []SchemaInfo
	for _, field := range schema.Fields() {
		infos = append(infos, fieldInfo(field, "", false)...)
	}
	return infos
}

// fieldInfo flattens a field, propagating repetition to nested leaves
func fieldInfo(field parquet.Field, prefix string, parentRepeated bool) []SchemaInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if children := field.Fields(); len(children) > 0 {
		var infos []SchemaInfo
		for _, child := range children {
			infos = append(infos, fieldInfo(child, name, repeated)...)
		}
		return infos
	}

	return []SchemaInfo{{
		Name:         name,
		Type:         userType(field),
		PhysicalType: physicalType(field),
		LogicalType:  logicalType(field),
		Required:     field.Required(),
		Optional:     field.Optional(),
		Repeated:     repeated,
	}}
}

func physicalType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}
	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

func logicalType(field parquet.Field) string {
	if field.Type() == nil {
		return ""
	}
	lt := field.Type().LogicalType()
	if lt == nil {
		return ""
	}
	return lt.String()
}

// userType simplifies physical and logical types into one name.
func userType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	lt := logicalType(field)
	for _, name := range []string{"STRING", "ENUM", "UUID", "DATE", "TIMESTAMP", "TIME", "DECIMAL", "JSON", "BSON"} {
		if strings.HasPrefix(lt, name) {
			return name
		}
	}
	if strings.HasPrefix(lt, "UTF8") {
		return "STRING"
	}

	switch field.Type().Kind() {
	case parquet.Float:
		return "FLOAT32"
	case parquet.Double:
		return "FLOAT64"
	default:
		return physicalType(field)
	}
}

// timestampUnit returns the unit of a TIMESTAMP logical type
func timestampUnit(lt string) (time.Duration, bool) {
	if !strings.HasPrefix(lt, "TIMESTAMP") {
		return 0, false
	}
	switch {
	case strings.Contains(lt, "NANOS"):
		return time.Nanosecond, true
	case strings.Contains(lt, "MICROS"):
		return time.Microsecond, true
	default:
		return time.Millisecond, true
	}
}

// FieldType maps a column onto the type its filter terms compare with.
func FieldType(info SchemaInfo) expression.FieldType {
	switch info.Type {
	case "BOOLEAN":
		return expression.TypeBoolean
	case "INT32", "INT64", "INT96", "FLOAT32", "FLOAT64", "DECIMAL":
		return expression.TypeNumeric
	case "DATE", "TIMESTAMP":
		return expression.TypeDate
	case "UUID":
		return expression.TypeID
	default:
		return expression.TypeText
	}
}

// Registry returns the field registry for a schema. Repeated and nested
// group columns are skipped; they cannot be compared as scalars.
func Registry(infos []SchemaInfo) *expression.Registry {
	fields := make([]expression.FieldDescriptor, 0, len(infos))
	for _, info := range infos {
		if info.Repeated || info.Type == "GROUP" {
			continue
		}
		fields = append(fields, expression.Field(info.Name, FieldType(info)))
	}
	return expression.NewRegistry(fields...)
}
