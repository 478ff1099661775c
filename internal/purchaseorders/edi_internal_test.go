package purchaseorders

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

func TestBuild850_EnvelopeAndOneLinePerItem(t *testing.T) {
	vendor := &domain.Vendor{
		ID: uuid.New(), Name: "Shaw Industries", Code: "SHAW",
		EDIQualifier: "01", EDIID: "SHAWVENDOR", SFTPHost: "sftp.shaw.example",
	}
	po := &domain.PurchaseOrder{ID: uuid.New(), PONumber: "PO-SHAW-1-abc123"}
	items := []domain.PurchaseOrderItem{
		{VendorSKU: "SKU-1", Qty: 10, CostPerBox: money.FromCents(3500), Description: "Anchor Oak Plank"},
		{VendorSKU: "SKU-2", Qty: 3, CostPerBox: money.FromCents(7200)},
	}

	doc := build850("ZZ", "FLOORWORKS", vendor, po, items, "000000042")
	text := string(doc)

	assert.True(t, strings.HasPrefix(text, "ISA*"), "document must open with an ISA segment")
	assert.Contains(t, text, "GS*PO*FLOORWORKS*SHAWVENDOR*")
	assert.Contains(t, text, "ST*850*000000042")
	assert.Contains(t, text, "BEG*00*NE*PO-SHAW-1-abc123")
	assert.Contains(t, text, "PO1*1*10*EA*3500**VP*SKU-1")
	assert.Contains(t, text, "PID*F****Anchor Oak Plank")
	assert.Contains(t, text, "PO1*2*3*EA*7200**VP*SKU-2")
	assert.Contains(t, text, "CTT*2")
	assert.Contains(t, text, "GE*1*000000042")
	assert.Contains(t, text, "IEA*1*000000042")
}

func TestBuild850_NoDescriptionOmitsPIDSegment(t *testing.T) {
	vendor := &domain.Vendor{EDIQualifier: "01", EDIID: "V"}
	po := &domain.PurchaseOrder{PONumber: "PO-V-1-x"}
	items := []domain.PurchaseOrderItem{{VendorSKU: "SKU-9", Qty: 1, CostPerBox: money.FromCents(100)}}

	doc := build850("ZZ", "FLOORWORKS", vendor, po, items, "000000001")
	assert.NotContains(t, string(doc), "PID*")
}
