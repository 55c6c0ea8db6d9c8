package recordcache

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// schemaFile is the YAML shape of a schema definition file:
//
//	schemas:
//	  - name: Post
//	    table: posts
//	    columns:
//	      - { name: id, type: int }
//	      - { name: blog_id, type: int }
//	      - { name: title, type: string }
//	    indices:
//	      - [title]
//	      - [blog_id, id]
//	    ttl: 5m
type schemaFile struct {
	Schemas []schemaDef `yaml:"schemas"`
}

type schemaDef struct {
	Name       string      `yaml:"name"`
	Table      string      `yaml:"table"`
	PrimaryKey string      `yaml:"primary_key"`
	TTL        duration    `yaml:"ttl"`
	Columns    []columnDef `yaml:"columns"`
	Indices    [][]string  `yaml:"indices"`
}

// duration decodes Go duration strings ("5m", "1h30m") from YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

type columnDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadSchemas parses a YAML schema definition file into registered schemas,
// in declaration order. Declaring schemas in a file keeps table layouts and
// cacheable indices next to each other and out of application code.
func LoadSchemas(r io.Reader) ([]*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchemaFile, err)
	}

	var file schemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Join(ErrInvalidSchemaFile, err)
	}
	if len(file.Schemas) == 0 {
		return nil, errors.Join(ErrInvalidSchemaFile, errors.New("no schemas defined"))
	}

	schemas := make([]*Schema, 0, len(file.Schemas))
	for _, def := range file.Schemas {
		s, err := def.build()
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func (d schemaDef) build() (*Schema, error) {
	if d.Name == "" || d.Table == "" {
		return nil, errors.Join(ErrInvalidSchemaFile,
			fmt.Errorf("schema %q: name and table are required", d.Name))
	}
	if len(d.Columns) == 0 {
		return nil, errors.Join(ErrInvalidSchemaFile,
			fmt.Errorf("schema %q: at least one column is required", d.Name))
	}

	columns := make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		ct, err := parseColumnType(c.Type)
		if err != nil {
			return nil, errors.Join(ErrInvalidSchemaFile,
				fmt.Errorf("schema %q, column %q: %w", d.Name, c.Name, err))
		}
		columns[i] = Column{Name: c.Name, Type: ct}
	}

	var opts []SchemaOption
	if d.PrimaryKey != "" {
		opts = append(opts, WithPrimaryKey(d.PrimaryKey))
	}
	if d.TTL != 0 {
		opts = append(opts, WithTTL(time.Duration(d.TTL)))
	}

	s := NewSchema(d.Name, d.Table, columns, opts...)
	for _, index := range d.Indices {
		s.Index(index...)
	}
	return s, nil
}

func parseColumnType(name string) (ColumnType, error) {
	switch name {
	case "string", "text":
		return ColumnString, nil
	case "int", "integer", "bigint":
		return ColumnInt, nil
	case "float", "decimal", "double":
		return ColumnFloat, nil
	case "bool", "boolean":
		return ColumnBool, nil
	case "time", "datetime", "timestamp", "date":
		return ColumnTime, nil
	case "", "raw":
		return ColumnRaw, nil
	default:
		return ColumnRaw, fmt.Errorf("unknown column type %q", name)
	}
}
