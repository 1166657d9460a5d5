package portability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recadm/recadm/pkg/record"
)

// fakeClient records create calls and can fail selected rows.
type fakeClient struct {
	created []record.Fields
	failOn  map[int]bool // 0-based index into create call sequence
	calls   int
}

func (f *fakeClient) Health(ctx context.Context) (bool, map[string]any) { return true, nil }

func (f *fakeClient) List(ctx context.Context) ([]record.Record, error) { return nil, nil }

func (f *fakeClient) Create(ctx context.Context, fields record.Fields) (record.Record, error) {
	idx := f.calls
	f.calls++
	if f.failOn[idx] {
		return record.Record{}, errors.New("backend rejected row")
	}
	f.created = append(f.created, fields)
	return record.Record{ID: "x", CreatedAt: 1, Fields: fields}, nil
}

func (f *fakeClient) Update(ctx context.Context, id string, fields record.Fields) (record.Record, error) {
	return record.Record{}, nil
}

func (f *fakeClient) Delete(ctx context.Context, id string) error { return nil }

func TestParseCSV(t *testing.T) {
	t.Parallel()

	data, err := ParseCSV(strings.NewReader("name,city\nAlice,Vellore\nBob,Chennai\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "city"}, data.Header)
	require.Len(t, data.Rows, 2)

	v, _ := data.Rows[0].Get("city")
	assert.Equal(t, "Vellore", v)
}

func TestParseCSVDropsReservedColumns(t *testing.T) {
	t.Parallel()

	data, err := ParseCSV(strings.NewReader("id,name,createdAt\nignored,Alice,123\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, data.Header)

	_, hasID := data.Rows[0].Get("id")
	assert.False(t, hasID, "id column must be ignored on import")
}

func TestParseCSVPadsShortRows(t *testing.T) {
	t.Parallel()

	data, err := ParseCSV(strings.NewReader("name,note\nAlice\n"))
	require.NoError(t, err)

	v, ok := data.Rows[0].Get("note")
	require.True(t, ok, "missing cells become empty strings")
	assert.Equal(t, "", v)
}

func TestParseCSVWholeFileFailure(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader("name,\"unclosed\nAlice"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)

	_, err = ParseCSV(strings.NewReader(""))
	require.ErrorAs(t, err, &pe)

	_, err = ParseCSV(strings.NewReader("id,createdAt\na,1\n"))
	require.ErrorAs(t, err, &pe, "a header of only reserved columns is unusable")
}

func TestPreview(t *testing.T) {
	t.Parallel()

	data, err := ParseCSV(strings.NewReader("n\n1\n2\n3\n"))
	require.NoError(t, err)
	assert.Len(t, data.Preview(2), 2)
	assert.Len(t, data.Preview(10), 3)
}

func TestImporterRequiredFieldSkipsRows(t *testing.T) {
	t.Parallel()

	// 5 rows, 2 missing the required name: exactly 3 creates.
	data, err := ParseCSV(strings.NewReader(
		"name,city\nAlice,Vellore\n,Chennai\nBob,\n ,Delhi\nCarol,Pune\n"))
	require.NoError(t, err)

	fc := &fakeClient{}
	im := &Importer{Client: fc, Require: []string{"name"}}
	res := im.Run(context.Background(), data.Rows)

	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, fc.created, 3)
}

func TestImporterRowFailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	data, err := ParseCSV(strings.NewReader("name\nA\nB\nC\n"))
	require.NoError(t, err)

	fc := &fakeClient{failOn: map[int]bool{1: true}}
	im := &Importer{Client: fc}
	res := im.Run(context.Background(), data.Rows)

	assert.Equal(t, 2, res.Created, "reported count is successful creates only")
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 3, res.Total())
	require.Len(t, fc.created, 2)

	// The row after the failure was still attempted, in order.
	v, _ := fc.created[1].Get("name")
	assert.Equal(t, "C", v)
}

func TestImporterSendsEmptyStringsForMissingCells(t *testing.T) {
	t.Parallel()

	data, err := ParseCSV(strings.NewReader("name,note\nAlice\n"))
	require.NoError(t, err)

	fc := &fakeClient{}
	im := &Importer{Client: fc, Require: []string{"name"}}
	im.Run(context.Background(), data.Rows)

	require.Len(t, fc.created, 1)
	v, ok := fc.created[0].Get("note")
	require.True(t, ok)
	assert.Equal(t, "", v)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	recs := []record.Record{
		{ID: "a", Fields: fieldsOf("name", "Alice", "city", "Vellore")},
		{ID: "b", Fields: fieldsOf("name", "Bob")},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, recs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,createdAt,city,name", lines[0])
	assert.Equal(t, "a,,Vellore,Alice", lines[1])
	assert.Equal(t, "b,,,Bob", lines[2])
}

func fieldsOf(kv ...string) record.Fields {
	var f record.Fields
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i], kv[i+1])
	}
	return f
}
