package cardsheet

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot(t *testing.T) {
	x, y := Slot(0, false)
	assert.InDelta(t, 0.875, x, 1e-9)
	assert.InDelta(t, 1.25, y, 1e-9)

	x, y = Slot(1, false)
	assert.InDelta(t, 0.875+3.375, x, 1e-9)
	assert.InDelta(t, 1.25, y, 1e-9)

	x, y = Slot(7, false)
	assert.InDelta(t, 0.875+3.375, x, 1e-9)
	assert.InDelta(t, 1.25+3*2.125, y, 1e-9)

	// the ninth card starts a new page
	x, y = Slot(8, false)
	assert.InDelta(t, 0.875, x, 1e-9)
	assert.InDelta(t, 1.25, y, 1e-9)
}

func TestSlotBackIsMirrored(t *testing.T) {
	for i := 0; i < PerPage; i++ {
		fx, fy := Slot(i, false)
		bx, by := Slot(i, true)
		assert.InDelta(t, PageWidth-fx-CardWidth, bx, 1e-9, "card %d", i)
		assert.InDelta(t, fy, by, 1e-9, "card %d", i)
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0))
	assert.Equal(t, 2, Pages(1))
	assert.Equal(t, 2, Pages(8))
	assert.Equal(t, 4, Pages(9))
}

func TestRender(t *testing.T) {
	cards := make([]Card, 9)
	for i := range cards {
		code := fmt.Sprintf("ABCD%04d", i)
		cards[i] = Card{Code: code, Content: "https://example.org/c/" + code, Label: "Child " + code}
	}

	pdf, err := NewRenderer("Kids Ledger").Render(cards)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	assert.Equal(t, Pages(len(cards)), pages)
}

func TestRenderEncodesNamesForCoreFonts(t *testing.T) {
	r := &Renderer{Title: "Fête", uncompressed: true}

	pdf, err := r.Render([]Card{{Code: "ABCD2345", Content: "ABCD2345", Label: "Zoë Müller"}})
	require.NoError(t, err)
	assert.Contains(t, string(pdf), "(Zo\xeb M\xfcller)")
	assert.Contains(t, string(pdf), "(F\xeate)")
	assert.NotContains(t, string(pdf), "Zo\xc3\xab")
}

func TestRenderEmpty(t *testing.T) {
	_, err := NewRenderer("x").Render(nil)
	assert.Error(t, err)
}
