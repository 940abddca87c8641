package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingDataset() Dataset {
	return Dataset{
		Title:   "Bookings",
		Headers: []string{"date", "start", "end", "member"},
		Rows: []map[string]string{
			{"date": "2025-06-02", "start": "17:00", "end": "18:00", "member": "Kari Bjørnstad"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(bookingDataset())
	require.NoError(t, err)
	assert.Equal(t, "date,start,end,member\n2025-06-02,17:00,18:00,Kari Bjørnstad\n", string(out))
}

func TestCSVExporterSemicolon(t *testing.T) {
	out, err := (&CSVExporter{Comma: ';'}).Render(bookingDataset())
	require.NoError(t, err)
	assert.Contains(t, string(out), "date;start;end;member")
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(bookingDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
