package purchaseorders

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/floorworks/commerce/internal/domain"
)

// EDIDispatcher generates an X12 850 purchase-order document and
// delivers it to a vendor's SFTP inbox, per spec.md §4.6. Grounded on
// nothing in the teacher (no X12/SFTP precedent exists in the pack);
// built directly from the spec's wire-format contract using the
// ecosystem's standard SFTP stack.
type EDIDispatcher struct {
	senderQualifier string
	senderID        string
	sshConfig       *ssh.ClientConfig
}

func NewEDIDispatcher(senderQualifier, senderID string, sshConfig *ssh.ClientConfig) *EDIDispatcher {
	return &EDIDispatcher{senderQualifier: senderQualifier, senderID: senderID, sshConfig: sshConfig}
}

// Send generates an 850 for po/items against vendor, uploads it over
// SFTP, and returns the interchange control number stamped into the
// ISA/IEA envelope.
func (d *EDIDispatcher) Send(ctx context.Context, vendor *domain.Vendor, po *domain.PurchaseOrder, items []domain.PurchaseOrderItem) (string, []byte, error) {
	controlNum := fmt.Sprintf("%09d", rand.Intn(999999999))
	doc := build850(d.senderQualifier, d.senderID, vendor, po, items, controlNum)

	addr := fmt.Sprintf("%s:22", vendor.SFTPHost)
	client, err := ssh.Dial("tcp", addr, d.sshConfig)
	if err != nil {
		return "", nil, fmt.Errorf("purchaseorders: edi ssh dial: %w", err)
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return "", nil, fmt.Errorf("purchaseorders: edi sftp client: %w", err)
	}
	defer sftpClient.Close()

	remotePath := fmt.Sprintf("/inbox/%s_%s.edi", po.PONumber, controlNum)
	f, err := sftpClient.Create(remotePath)
	if err != nil {
		return "", nil, fmt.Errorf("purchaseorders: edi sftp create: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(doc); err != nil {
		return "", nil, fmt.Errorf("purchaseorders: edi sftp write: %w", err)
	}
	return controlNum, doc, nil
}

// build850 renders a minimal ANSI X12 850 purchase order envelope:
// ISA/GS/ST segments, one PO1 loop per item, and matching trailers. Not
// a full X12 implementation — enough structure for the vendor's EDI
// translator to parse quantity, cost, and SKU per line.
func build850(senderQualifier, senderID string, vendor *domain.Vendor, po *domain.PurchaseOrder, items []domain.PurchaseOrderItem, controlNum string) []byte {
	var buf bytes.Buffer
	now := time.Now()
	segCount := 0

	seg := func(s string) {
		buf.WriteString(s)
		buf.WriteString("~\n")
		segCount++
	}

	fmt.Fprintf(&buf, "ISA*00*          *00*          *%s*%-15s*%s*%-15s*%s*%s*U*00401*%s*0*P*>~\n",
		senderQualifier, senderID, vendor.EDIQualifier, vendor.EDIID,
		now.Format("060102"), now.Format("1504"), controlNum)
	seg(fmt.Sprintf("GS*PO*%s*%s*%s*%s*%s*X*004010", senderID, vendor.EDIID, now.Format("20060102"), now.Format("1504"), controlNum))
	seg(fmt.Sprintf("ST*850*%s", controlNum))
	seg(fmt.Sprintf("BEG*00*NE*%s**%s", po.PONumber, now.Format("20060102")))

	for i, it := range items {
		seg(fmt.Sprintf("PO1*%d*%d*EA*%s**VP*%s", i+1, it.Qty, it.CostPerBox.String(), it.VendorSKU))
		if it.Description != "" {
			seg(fmt.Sprintf("PID*F****%s", it.Description))
		}
	}

	seg(fmt.Sprintf("CTT*%d", len(items)))
	seg(fmt.Sprintf("SE*%d*%s", segCount-1, controlNum)) // -1: GS isn't counted in SE
	buf.WriteString(fmt.Sprintf("GE*1*%s~\n", controlNum))
	buf.WriteString(fmt.Sprintf("IEA*1*%s~\n", controlNum))

	return buf.Bytes()
}
