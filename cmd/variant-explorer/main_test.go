package main

import (
	"bytes"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/marcboeker/go-duckdb"
)

const brca1Lookup = `{
  "id": "ENSG00000012048",
  "display_name": "BRCA1",
  "description": "BRCA1 DNA repair associated",
  "seq_region_name": "17",
  "start": 43044295,
  "end": 43125483,
  "biotype": "protein_coding",
  "Transcript": [
    {"id": "ENST00000357654", "display_name": "BRCA1-203", "biotype": "protein_coding", "is_canonical": 1}
  ]
}`

const brca1VEP = `[{
  "id": "17_43057063_G/A",
  "seq_region_name": "17",
  "start": 43057063,
  "end": 43057063,
  "allele_string": "G/A",
  "most_severe_consequence": "missense_variant",
  "transcript_consequences": [{"transcript_id": "ENST00000357654", "amino_acids": "R/Q", "protein_start": 1699}],
  "clinical_significance": ["pathogenic"],
  "colocated_variants": [{"id": "rs80357065", "frequencies": {"gnomAD": {"A": 0.0001}}}]
}]`

// newEnsemblServer serves canned responses for BRCA1 and one variant.
// Everything else answers 400 like the real service does for unknown symbols.
func newEnsemblServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/lookup/symbol/human/BRCA1":
			fmt.Fprint(w, brca1Lookup)
		case r.URL.Path == "/xrefs/id/ENSG00000012048" && r.URL.Query().Get("external_db") == "GO":
			fmt.Fprint(w, `[{"dbname": "GO", "description": "DNA repair"}]`)
		case r.URL.Path == "/xrefs/id/ENSG00000012048":
			fmt.Fprint(w, `[{"dbname": "KEGG", "description": "Homologous recombination"}]`)
		case r.URL.Path == "/phenotype/gene/ENSG00000012048":
			fmt.Fprint(w, `[{"phenotype": {"description": "Breast-ovarian cancer, familial, 1"}, "source": {"name": "MIM morbid"}}]`)
		case r.URL.Path == "/vep/human/GRCh38/17:43057063:43057063/G/A":
			fmt.Fprint(w, brca1VEP)
		default:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// runCLI runs the tool against srv with a clean configuration.
func runCLI(t *testing.T, srv *httptest.Server, args ...string) (int, string, string) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	if srv != nil {
		t.Setenv("VARIANT_EXPLORER_BASE_URL", srv.URL)
	}
	if _, ok := os.LookupEnv("VARIANT_EXPLORER_RATE_LIMIT"); !ok {
		t.Setenv("VARIANT_EXPLORER_RATE_LIMIT", "0.001")
	}

	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestGeneCSV(t *testing.T) {
	srv := newEnsemblServer(t)

	code, stdout, stderr := runCLI(t, srv, "gene", "BRCA1")
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Equal(t,
		`"gene_symbol","gene_id","description","location","biotype","function","pathways"`+"\n"+
			`"BRCA1","ENSG00000012048","BRCA1 DNA repair associated","17:43044295-43125483","protein_coding","DNA repair","Homologous recombination"`+"\n",
		stdout)
}

func TestGeneJSONWithTranscriptsAndPhenotypes(t *testing.T) {
	srv := newEnsemblServer(t)

	code, stdout, stderr := runCLI(t, srv, "gene", "BRCA1", "--include-transcripts", "--include-phenotypes", "-f", "json",
		"--fields", "gene_symbol,transcripts,phenotypes")
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Equal(t, `[
  {
    "gene_symbol": "BRCA1",
    "transcripts": [
      {
        "transcript_id": "ENST00000357654",
        "transcript_name": "BRCA1-203",
        "biotype": "protein_coding",
        "is_canonical": true
      }
    ],
    "phenotypes": [
      {
        "description": "Breast-ovarian cancer, familial, 1",
        "source": "MIM morbid"
      }
    ]
  }
]
`, stdout)
}

func TestGenePartialFailure(t *testing.T) {
	srv := newEnsemblServer(t)

	code, stdout, stderr := runCLI(t, srv, "gene", "NOTAGENE", "BRCA1", "--fields", "gene_symbol")
	require.Equal(t, ExitSuccess, code)

	assert.Equal(t, "\"gene_symbol\"\n\"BRCA1\"\n", stdout)
	assert.Contains(t, stderr, "failed to process gene")
	assert.Contains(t, stderr, "NOTAGENE")
	assert.Contains(t, stderr, "REST API error 400")
}

func TestNoResults(t *testing.T) {
	srv := newEnsemblServer(t)

	code, stdout, stderr := runCLI(t, srv, "gene", "NOTAGENE")
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No results found.")
}

func TestVariantJSON(t *testing.T) {
	srv := newEnsemblServer(t)

	code, stdout, stderr := runCLI(t, srv, "variant", "chr17:43057063:G:A", "-f", "json",
		"--fields", "variant_id,global_frequency,consequence,clinical_significance")
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Equal(t, `[
  {
    "variant_id": "17_43057063_G/A",
    "global_frequency": 0.0001,
    "consequence": "p.RtoQ1699",
    "clinical_significance": "pathogenic"
  }
]
`, stdout)
}

func TestVariantMalformedDescriptor(t *testing.T) {
	srv := newEnsemblServer(t)

	code, _, stderr := runCLI(t, srv, "variant", "17-43057063-G-A")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "malformed variant descriptor")
	assert.Contains(t, stderr, "No results found.")
}

func TestVariantInvalidAssembly(t *testing.T) {
	code, _, stderr := runCLI(t, nil, "variant", "17:43057063:G:A", "--assembly", "hg19")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, `invalid assembly "hg19"`)
}

func TestInvalidFormat(t *testing.T) {
	code, _, stderr := runCLI(t, nil, "gene", "BRCA1", "-f", "xml")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, `invalid format "xml"`)
}

func TestOutputFile(t *testing.T) {
	srv := newEnsemblServer(t)
	path := filepath.Join(t.TempDir(), "brca1.csv")

	code, stdout, stderr := runCLI(t, srv, "gene", "BRCA1", "-o", path, "--fields", "gene_id")
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Equal(t, "Results saved to "+path+"\n", stdout)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"gene_id\"\n\"ENSG00000012048\"\n", string(data))
}

func TestDuckDBExport(t *testing.T) {
	srv := newEnsemblServer(t)
	dbPath := filepath.Join(t.TempDir(), "results.duckdb")

	code, _, stderr := runCLI(t, srv, "gene", "BRCA1", "NOTAGENE", "--duckdb", dbPath, "-v")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "exported results")
	assert.Contains(t, stderr, `"path": "`+dbPath+`"`)
	assert.Contains(t, stderr, `"genes": 1`)
	var exported []string
	for _, line := range strings.Split(stderr, "\n") {
		if strings.Contains(line, "exported input") {
			exported = append(exported, line)
		}
	}
	require.Len(t, exported, 1, "failed inputs are not exported")
	assert.Contains(t, exported[0], `"input": "BRCA1"`)

	code, _, stderr = runCLI(t, srv, "variant", "17:43057063:G:A", "--duckdb", dbPath)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, `"variants": 1`)

	db, err := sql.Open("duckdb", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var genes, variants, runs int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM gene_results WHERE input='BRCA1'").Scan(&genes))
	require.NoError(t, db.QueryRow("SELECT count(*) FROM variant_results").Scan(&variants))
	require.NoError(t, db.QueryRow(
		"SELECT count(DISTINCT run_id) FROM (SELECT run_id FROM gene_results UNION ALL SELECT run_id FROM variant_results)").Scan(&runs))
	assert.Equal(t, 1, genes)
	assert.Equal(t, 1, variants)
	assert.Equal(t, 2, runs)
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, nil, "protein", "BRCA1")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestNoCommand(t *testing.T) {
	code, _, stderr := runCLI(t, nil)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "Usage:")
	assert.Contains(t, stderr, "a command is required")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, nil, "--version")
	assert.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout, "variant-explorer version dev"), stdout)
}

func TestConfigSetGet(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")

	code, stdout, stderr := runCLI(t, nil, "config", "set", "assembly", "GRCh37", "--config", cfg)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Set assembly = GRCh37 in "+cfg)

	code, stdout, stderr = runCLI(t, nil, "config", "get", "assembly", "--config", cfg)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "GRCh37\n", stdout)

	code, stdout, _ = runCLI(t, nil, "config", "--config", cfg)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "# Config file: "+cfg)
	assert.Contains(t, stdout, "assembly: GRCh37")
	assert.Contains(t, stdout, "base_url: https://rest.ensembl.org/")
}

func TestConfigFileDrivesAssembly(t *testing.T) {
	srv := newEnsemblServer(t)
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("assembly: GRCh37\n"), 0o644))

	// The server only knows the GRCh38 path, so a GRCh37 request fails.
	code, _, stderr := runCLI(t, srv, "variant", "17:43057063:G:A", "--config", cfg)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "/vep/human/GRCh37/")

	code, stdout, stderr := runCLI(t, srv, "variant", "17:43057063:G:A", "--config", cfg, "--assembly", "GRCh38", "--fields", "variant_id")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "\"variant_id\"\n\"17_43057063_G/A\"\n", stdout)
}

func TestConfigGetUnknownKey(t *testing.T) {
	code, _, stderr := runCLI(t, nil, "config", "get", "no_such_key")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, `key "no_such_key" is not set`)
}

func TestRateLimitZeroDisablesThrottle(t *testing.T) {
	srv := newEnsemblServer(t)
	t.Setenv("VARIANT_EXPLORER_RATE_LIMIT", "0")

	code, stdout, stderr := runCLI(t, srv, "gene", "BRCA1", "-v", "--fields", "gene_id")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "\"gene_id\"\n\"ENSG00000012048\"\n", stdout)
	assert.Contains(t, stderr, `"min_interval": "0s"`)
}

func TestRateLimitDefault(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, initConfig(""))
	assert.InDelta(t, 0.1, viper.GetFloat64("rate_limit"), 1e-9)
}

func TestRateLimitNegativeRejected(t *testing.T) {
	srv := newEnsemblServer(t)
	t.Setenv("VARIANT_EXPLORER_RATE_LIMIT", "-1")

	code, _, stderr := runCLI(t, srv, "gene", "BRCA1")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "is negative")
}
