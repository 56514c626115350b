package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hortanse/variant-explorer/internal/annotate"
)

func TestCSVWriter_GeneRow(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	rows := []annotate.Row{{
		{Key: "gene_symbol", Value: "BRCA1"},
		{Key: "gene_id", Value: "ENSG00000012048"},
		{Key: "location", Value: "17:43044295-43125483"},
		{Key: "transcripts", Value: []annotate.TranscriptRecord{{ID: "ENST00000357654", Name: "BRCA1-203", Biotype: "protein_coding", IsCanonical: true}}},
	}}
	require.NoError(t, w.Write(rows))

	assert.Equal(t,
		`"gene_symbol","gene_id","location","transcripts"`+"\n"+
			`"BRCA1","ENSG00000012048","17:43044295-43125483","[{""transcript_id"":""ENST00000357654"",""transcript_name"":""BRCA1-203"",""biotype"":""protein_coding"",""is_canonical"":true}]"`+"\n",
		buf.String())
}

func TestCSVWriter_NumbersBareAndNullEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	rows := []annotate.Row{
		{{Key: "variant_id", Value: "rs80357065"}, {Key: "global_frequency", Value: 0.0001}},
		{{Key: "variant_id", Value: "rs1"}, {Key: "global_frequency", Value: nil}},
		{{Key: "variant_id", Value: "rs2"}, {Key: "global_frequency", Value: 1e-05}},
	}
	require.NoError(t, w.Write(rows))

	assert.Equal(t, `"variant_id","global_frequency"
"rs80357065",0.0001
"rs1",
"rs2",1e-05
`, buf.String())
}

func TestCSVWriter_HeaderIsUnionInFirstSeenOrder(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	rows := []annotate.Row{
		{{Key: "a", Value: "1"}},
		{{Key: "b", Value: "2"}, {Key: "a", Value: "3"}},
		{},
	}
	require.NoError(t, w.Write(rows))

	assert.Equal(t, `"a","b"
"1",
"3","2"
,
`, buf.String())
}

func TestCSVWriter_QuotesEmbeddedQuotes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVWriter(&buf).Write([]annotate.Row{{{Key: "description", Value: `say "hi", ok`}}}))
	assert.Equal(t, "\"description\"\n\"say \"\"hi\"\", ok\"\n", buf.String())
}

func TestCSVWriter_NoColumnsWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.Write(nil))
	require.NoError(t, w.Write([]annotate.Row{{}}))
	assert.Empty(t, buf.String())
}

func TestColumns(t *testing.T) {
	rows := []annotate.Row{
		{{Key: "x", Value: 1}, {Key: "y", Value: 2}},
		{{Key: "z", Value: 3}, {Key: "x", Value: 4}},
	}
	assert.Equal(t, []string{"x", "y", "z"}, Columns(rows))
}

func TestFormatCell_PopulationTable(t *testing.T) {
	cell, err := formatCell(annotate.PopulationFrequencyTable{"gnomAD": {"afr": 0.2, "A": 0.1}})
	require.NoError(t, err)
	assert.Equal(t, `"{""gnomAD"":{""A"":0.1,""afr"":0.2}}"`, cell)
}
