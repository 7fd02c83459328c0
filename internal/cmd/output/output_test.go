package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync/pkg/pim"
	"github.com/agentstation/pimsync/pkg/sync"
)

func sampleRun() *sync.Result {
	r := sync.NewResult(sync.KindStyles, []string{"STTU964"})
	r.AddProduct(sync.ProductRecord{StyleID: "STTU964", ProductID: "gid://shopify/Product/1", Title: "Creator 2.0", Action: "created"})
	r.VariantsCreated = 4
	l := r.Image("SFM0_STTU964_C001.jpg", "https://pim.example/SFM0_STTU964_C001.jpg")
	l.Action, l.AssetID, l.Expected, l.Succeeded = sync.ImageUploaded, "gid://shopify/MediaImage/7", 1, 1
	r.AddError("STSU177", errors.New("no data in any partition"))
	r.Finish()
	return r
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestRun_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, Run{Result: sampleRun()}))

	out := buf.String()
	assert.Contains(t, out, "Products created")
	assert.Contains(t, out, "Creator 2.0")
	assert.Contains(t, out, "SFM0_STTU964_C001.jpg")
	assert.Contains(t, out, "uploaded-new")
	assert.Contains(t, out, "1/1")
	assert.Contains(t, out, "STSU177: no data in any partition")
}

func TestRun_JSONIsTheResult(t *testing.T) {
	run := sampleRun()
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, Run{Result: run}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, run.RunID, decoded["run_id"])
	assert.EqualValues(t, 1, decoded["products_created"])
}

func TestRun_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, Run{Result: sampleRun()}))
	assert.Contains(t, buf.String(), "products_created: 1")
}

func TestRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, Runs(nil)))
	assert.Contains(t, buf.String(), "No runs recorded.")
}

func TestGroups_Table(t *testing.T) {
	rec := func(size, color, code string) pim.SourceVariantRecord {
		return pim.SourceVariantRecord{
			StyleID: "STTU964", StyleName: "Creator 2.0",
			StylePublished: true, VariantPublished: true,
			SizeName: size, SizeCode: size, ColorName: color, ColorCode: code,
			Price: decimal.RequireFromString("12.5"), Weight: 180,
		}
	}
	groups := pim.GroupByStyle([]pim.SourceVariantRecord{rec("S", "Black", "C001"), rec("M", "Black", "C001")})

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, Groups{Groups: groups, SplitThreshold: 100}))

	out := buf.String()
	assert.Contains(t, out, "STTU964 Creator 2.0 (2 records, published: true)")
	assert.Contains(t, out, "creator-2-0")
	assert.Contains(t, out, "STTU964C001S")
	assert.Contains(t, out, "12.50")
}
