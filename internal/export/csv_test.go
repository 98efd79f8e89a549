package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/abgdnv/catalogdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []store.Product{
		{ID: "2", Name: "Fabric soap", Category: "Hygiene", Description: "Cleans fabrics effectively and removes stains."},
		{ID: "1", Name: "Rice, white", Category: "Food", Description: `say "hi"`},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"ID,Name,Category,Description\n"+
			"2,Fabric soap,Hygiene,Cleans fabrics effectively and removes stains.\n"+
			"1,\"Rice, white\",Food,\"say \"\"hi\"\"\"\n",
		buf.String())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Rice, white", "Food", `say "hi"`}, records[2])
}

func Test_WriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "ID,Name,Category,Description\n", buf.String())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func Test_WriteCSV_WriterError(t *testing.T) {
	assert.Error(t, WriteCSV(brokenWriter{}, store.Seed()))
}
