package bulk

import (
	"bytes"
	"encoding"
	"encoding/csv"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DateTimeLayout is the ISO-8601 form used for time.Time fields.
const DateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	timeType          = reflect.TypeOf(time.Time{})
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

type encodeOptions struct {
	lineEnding LineEnding
	delimiter  ColumnDelimiter
}

// EncodeOption configures EncodeRecords.
type EncodeOption func(*encodeOptions)

// WithEncodeLineEnding selects "\r\n" for CRLF and "\n" otherwise.
func WithEncodeLineEnding(le LineEnding) EncodeOption {
	return func(o *encodeOptions) { o.lineEnding = le }
}

// WithEncodeDelimiter sets the field separator. Empty means comma.
func WithEncodeDelimiter(d ColumnDelimiter) EncodeOption {
	return func(o *encodeOptions) { o.delimiter = d }
}

type column struct {
	name  string
	index []int
}

// EncodeRecords converts a slice of structs (or struct pointers) into CSV.
// The header row comes from exported field names, or the name in a
// `csv:"Name"` tag; `csv:"-"` skips a field. Values use locale-independent
// formatting. An empty slice yields the header row only.
func EncodeRecords(records any, opts ...EncodeOption) ([]byte, error) {
	o := encodeOptions{lineEnding: LineEndingCRLF, delimiter: DelimiterComma}
	for _, opt := range opts {
		opt(&o)
	}

	v := reflect.ValueOf(records)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("records must be a slice of structs, got nil %s", v.Type())
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("records must be a slice of structs, got %s", v.Kind())
	}

	elemType := v.Type().Elem()
	ptrElems := elemType.Kind() == reflect.Pointer
	if ptrElems {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("records must be a slice of structs, got slice of %s", elemType)
	}

	cols := columnsOf(elemType)
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s has no exported fields", elemType)
	}

	rw := newRecordWriter(o)

	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.name
	}
	if err := rw.write(header); err != nil {
		return nil, err
	}

	row := make([]string, len(cols))
	for i := 0; i < v.Len(); i++ {
		rec := v.Index(i)
		if ptrElems {
			if rec.IsNil() {
				return nil, fmt.Errorf("record %d is nil", i)
			}
			rec = rec.Elem()
		}

		for j, col := range cols {
			fv, err := rec.FieldByIndexErr(col.index)
			if err != nil {
				// nil embedded struct pointer
				row[j] = ""
				continue
			}
			s, err := formatValue(fv)
			if err != nil {
				return nil, fmt.Errorf("record %d field %s: %w", i, col.name, err)
			}
			row[j] = s
		}
		if err := rw.write(row); err != nil {
			return nil, err
		}
	}

	return rw.out.Bytes(), nil
}

// recordWriter emits one CSV record at a time. Fields are quoted by
// encoding/csv but written byte for byte; only the record terminator follows
// the configured line ending. csv.Writer's UseCRLF would rewrite line breaks
// inside quoted fields and drop a lone \r.
type recordWriter struct {
	out bytes.Buffer
	rec bytes.Buffer
	w   *csv.Writer
	eol string
}

func newRecordWriter(o encodeOptions) *recordWriter {
	rw := &recordWriter{eol: "\n"}
	if o.lineEnding == LineEndingCRLF {
		rw.eol = "\r\n"
	}
	rw.w = csv.NewWriter(&rw.rec)
	rw.w.Comma = o.delimiter.Rune()
	return rw
}

func (rw *recordWriter) write(fields []string) error {
	rw.rec.Reset()
	if err := rw.w.Write(fields); err != nil {
		return err
	}
	rw.w.Flush()
	if err := rw.w.Error(); err != nil {
		return err
	}
	rw.out.Write(bytes.TrimSuffix(rw.rec.Bytes(), []byte("\n")))
	rw.out.WriteString(rw.eol)
	return nil
}

func columnsOf(t reflect.Type) []column {
	var cols []column
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("csv"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		cols = append(cols, column{name: name, index: f.Index})
	}
	return cols
}

func formatValue(v reflect.Value) (string, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}

	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "", nil
		}
		return t.Format(DateTimeLayout), nil
	}

	if v.Type().Implements(textMarshalerType) {
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	}

	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String(), nil
	}
	return "", fmt.Errorf("unsupported type %s", v.Type())
}
