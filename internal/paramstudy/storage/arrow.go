package storage

import (
	"bytes"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/banshee-data/paramstudy/internal/paramstudy"
)

func arrowType(k paramstudy.Kind) (arrow.DataType, error) {
	switch k {
	case paramstudy.KindInt:
		return arrow.PrimitiveTypes.Int64, nil
	case paramstudy.KindFloat:
		return arrow.PrimitiveTypes.Float64, nil
	case paramstudy.KindString:
		return arrow.BinaryTypes.String, nil
	case paramstudy.KindBool:
		return arrow.FixedWidthTypes.Boolean, nil
	}
	return nil, fmt.Errorf("no arrow type for %s values", k)
}

func kindOf(dt arrow.DataType) (paramstudy.Kind, bool) {
	switch dt.ID() {
	case arrow.INT64:
		return paramstudy.KindInt, true
	case arrow.FLOAT64:
		return paramstudy.KindFloat, true
	case arrow.STRING:
		return paramstudy.KindString, true
	case arrow.BOOL:
		return paramstudy.KindBool, true
	}
	return paramstudy.KindInvalid, false
}

func studyMetadata(st *paramstudy.Study) arrow.Metadata {
	return arrow.NewMetadata(
		[]string{metaFormatVersion, metaMethod, metaTemplate, metaStudyID},
		[]string{formatVersion, string(st.Method()), string(st.SetNameTemplate()), st.ID().String()},
	)
}

// encodeArrow writes the study as an Arrow IPC file holding one record
// batch: set_name, set_hash, then one typed column per parameter.
func encodeArrow(st *paramstudy.Study) ([]byte, error) {
	names := st.ParameterNames()
	fields := []arrow.Field{
		{Name: paramstudy.SetNameColumn, Type: arrow.BinaryTypes.String},
		{Name: paramstudy.SetHashColumn, Type: arrow.BinaryTypes.String},
	}
	for _, name := range names {
		k, _ := st.ColumnKind(name)
		dt, err := arrowType(k)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt})
	}
	md := studyMetadata(st)
	schema := arrow.NewSchema(fields, &md)

	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, r := range st.Rows() {
		b.Field(0).(*array.StringBuilder).Append(r.Name)
		b.Field(1).(*array.StringBuilder).Append(r.Hash)
		for c, name := range names {
			v := r.Set[name]
			switch fb := b.Field(c + 2).(type) {
			case *array.Int64Builder:
				fb.Append(v.Int64())
			case *array.Float64Builder:
				fb.Append(v.Float64())
			case *array.StringBuilder:
				fb.Append(v.Str())
			case *array.BooleanBuilder:
				fb.Append(v.Boolean())
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	// The IPC file footer is written by seeking back, so the writer needs a
	// real file rather than a buffer.
	f, err := os.CreateTemp("", "paramstudy-*.arrow")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write record batch: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish arrow file: %w", err)
	}
	return os.ReadFile(f.Name())
}

func decodeArrow(path string, data []byte) (*paramstudy.Study, error) {
	r, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, formatError(path, "not an Arrow IPC file", err)
	}
	defer r.Close()

	schema := r.Schema()
	attrs, err := readAttributes(path, func(key string) (string, bool) {
		md := schema.Metadata()
		if i := md.FindKey(key); i >= 0 {
			return md.Values()[i], true
		}
		return "", false
	})
	if err != nil {
		return nil, err
	}

	fields := schema.Fields()
	if len(fields) < 2 ||
		fields[0].Name != paramstudy.SetNameColumn || fields[0].Type.ID() != arrow.STRING ||
		fields[1].Name != paramstudy.SetHashColumn || fields[1].Type.ID() != arrow.STRING {
		return nil, formatError(path, "expected set_name and set_hash string columns first", nil)
	}
	var names []string
	for _, f := range fields[2:] {
		if _, ok := kindOf(f.Type); !ok {
			return nil, formatError(path, fmt.Sprintf("parameter %q has unsupported column type %s", f.Name, f.Type), nil)
		}
		names = append(names, f.Name)
	}

	var rows []paramstudy.Row
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, formatError(path, fmt.Sprintf("cannot read record batch %d", i), err)
		}
		batch, err := recordRows(rec, names)
		if err != nil {
			return nil, formatError(path, err.Error(), nil)
		}
		rows = append(rows, batch...)
	}
	return attrs.study(path, names, rows)
}

// recordRows converts one record batch. The record is owned by the reader.
func recordRows(rec arrow.Record, names []string) ([]paramstudy.Row, error) {
	n := int(rec.NumRows())
	setNames, ok1 := rec.Column(0).(*array.String)
	hashes, ok2 := rec.Column(1).(*array.String)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("set_name and set_hash must be string columns")
	}

	rows := make([]paramstudy.Row, n)
	for i := range rows {
		if setNames.IsNull(i) || hashes.IsNull(i) {
			return nil, fmt.Errorf("row %d has a null set name or hash", i)
		}
		rows[i] = paramstudy.Row{
			Name: setNames.Value(i),
			Hash: hashes.Value(i),
			Set:  make(paramstudy.ParameterSet, len(names)),
		}
	}

	for c, name := range names {
		col := rec.Column(c + 2)
		for i := range rows {
			if col.IsNull(i) {
				return nil, fmt.Errorf("parameter %q is null in row %d", name, i)
			}
			var v paramstudy.Value
			switch a := col.(type) {
			case *array.Int64:
				v = paramstudy.Int(a.Value(i))
			case *array.Float64:
				f, err := paramstudy.ValueOf(a.Value(i))
				if err != nil {
					return nil, fmt.Errorf("parameter %q row %d: %w", name, i, err)
				}
				v = f
			case *array.String:
				v = paramstudy.String(a.Value(i))
			case *array.Boolean:
				v = paramstudy.Bool(a.Value(i))
			default:
				return nil, fmt.Errorf("parameter %q has unsupported column type %s", name, col.DataType())
			}
			rows[i].Set[name] = v
		}
	}
	return rows, nil
}
